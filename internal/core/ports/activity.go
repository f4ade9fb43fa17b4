package ports

import (
	"context"
	"time"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

// ActivityInput is the DTO handed from the account service to the activity pipeline.
type ActivityInput struct {
	AccountID string
	Kind      domain.Kind
	Action    domain.ActivityAction
	ActorID   string
	Fields    []string
	At        time.Time
}

// ActivityRecorder accepts activity entries without blocking the caller.
type ActivityRecorder interface {
	Enqueue(in ActivityInput)
}

// ActivityRepository persists the account audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, a *domain.Activity) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Activity, error)
}

// ActivityService stores and reads activity entries.
type ActivityService interface {
	Process(ctx context.Context, in ActivityInput) error
	List(ctx context.Context, accountID string, limit int) ([]*domain.Activity, error)
}
