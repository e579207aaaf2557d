package entity

import "time"

// RemoteProduct product as exposed by the remote collection resource
type RemoteProduct struct {
	ID          string
	Name        string
	Price       float64
	Description string
	CreatedAt   time.Time
}

// PushFailure one product the remote resource did not accept
type PushFailure struct {
	ProductID string
	Name      string
	Err       error
}

// SyncReport outcome of one reconciliation run
type SyncReport struct {
	Pulled    int
	Pushed    int
	Failures  []PushFailure
	StartedAt time.Time
	Duration  time.Duration
}

// Failed number of products whose push failed
func (r SyncReport) Failed() int {
	return len(r.Failures)
}
