package entity

import "time"

// SyncStatus is derived from whether the remote resource has accepted a record.
type SyncStatus int

const (
	// StatusLocal record exists only in the local store.
	StatusLocal SyncStatus = iota
	// StatusSynced record carries a server-assigned identifier.
	StatusSynced
)

func (s SyncStatus) String() string {
	if s == StatusSynced {
		return "synced"
	}
	return "local"
}

// Product is one catalog entry held in the local collection.
//
// The sync status is not stored separately: a product is synced exactly when
// ServerID is set, and MarkSynced is the only way to set it.
type Product struct {
	ID          string
	ServerID    string
	Name        string
	Price       float64
	Description string
	CreatedAt   time.Time
}

// Status returns StatusSynced once the remote resource has accepted the product.
func (p Product) Status() SyncStatus {
	if p.ServerID != "" {
		return StatusSynced
	}
	return StatusLocal
}

// Synced reports whether the product carries a server identifier.
func (p Product) Synced() bool {
	return p.Status() == StatusSynced
}

// MarkSynced attaches the server identifier. An empty id is ignored.
func (p *Product) MarkSynced(serverID string) {
	if serverID == "" {
		return
	}
	p.ServerID = serverID
}

// ProductInput user-submitted product fields
type ProductInput struct {
	Name        string
	Price       float64
	Description string
}
