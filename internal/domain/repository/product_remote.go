package repository

import (
	"context"

	"github.com/yourusername/productsync/internal/domain/entity"
)

// ProductRemote REST collection resource holding the shared catalog
type ProductRemote interface {
	// FetchAll lists the whole remote collection
	FetchAll(ctx context.Context) ([]entity.RemoteProduct, error)

	// Create adds a product; the returned record carries the server id
	Create(ctx context.Context, product entity.RemoteProduct) (*entity.RemoteProduct, error)

	// Update replaces the product stored under remoteID
	Update(ctx context.Context, remoteID string, product entity.RemoteProduct) error

	// Delete removes the product stored under remoteID
	Delete(ctx context.Context, remoteID string) error
}
