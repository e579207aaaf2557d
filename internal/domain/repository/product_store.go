package repository

import (
	"context"

	"github.com/yourusername/productsync/internal/domain/entity"
)

// ProductStore persists the local product collection
type ProductStore interface {
	// Load reads the collection; a missing payload yields an empty collection
	Load(ctx context.Context) ([]entity.Product, error)

	// Save replaces the persisted collection
	Save(ctx context.Context, products []entity.Product) error

	// Clear removes the persisted collection
	Clear(ctx context.Context) error
}
