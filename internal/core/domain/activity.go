package domain

import "time"

// ActivityAction names something that happened to an account.
type ActivityAction string

const (
	ActionRegistered     ActivityAction = "registered"
	ActionLoggedIn       ActivityAction = "logged_in"
	ActionLoginFailed    ActivityAction = "login_failed"
	ActionProfileUpdated ActivityAction = "profile_updated"
	ActionSoftDeleted    ActivityAction = "soft_deleted"
)

// Activity is one entry of an account's audit trail.
type Activity struct {
	ID        string         `json:"_id"`
	AccountID string         `json:"accountId"`
	Kind      Kind           `json:"kind"`
	Action    ActivityAction `json:"action"`
	ActorID   string         `json:"actorId,omitempty"`
	Fields    []string       `json:"fields,omitempty"`
	At        time.Time      `json:"at"`
}
