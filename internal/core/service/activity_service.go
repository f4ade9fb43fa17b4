package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type activityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
}

// NewActivityService returns an ActivityService implementation.
func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, log: log}
}

// Process persists a single activity entry.
func (s *activityService) Process(ctx context.Context, in ports.ActivityInput) error {
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	entry := &domain.Activity{
		AccountID: in.AccountID,
		Kind:      in.Kind,
		Action:    in.Action,
		ActorID:   in.ActorID,
		Fields:    in.Fields,
		At:        at,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("process activity: %w", err)
	}

	s.log.Debug().
		Str("account_id", in.AccountID).
		Str("action", string(in.Action)).
		Msg("activity recorded")
	return nil
}

// List returns the most recent entries for accountID, newest first. limit is
// clamped to [1, 100] with 20 as the default.
func (s *activityService) List(ctx context.Context, accountID string, limit int) ([]*domain.Activity, error) {
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}

	entries, err := s.repo.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.Activity{}
	}
	return entries, nil
}
