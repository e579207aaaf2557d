package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/infrastructure/jsonx"
	"go.uber.org/zap"
)

// DefaultProductsKey key under which the collection is persisted
const DefaultProductsKey = "productos"

// storedProduct persisted record layout
type storedProduct struct {
	ID          jsonx.ID `json:"id"`
	ServerID    jsonx.ID `json:"idServidor,omitempty"`
	Name        string   `json:"nombre"`
	Price       float64  `json:"precio"`
	Description string   `json:"descripcion,omitempty"`
	CreatedAt   string   `json:"fechaCreacion"`
	Synced      bool     `json:"sincronizado"`
}

type productStore struct {
	kv     repository.KeyValueStore
	key    string
	logger *zap.Logger
}

// NewProductStore stores the product collection as one JSON array under key
func NewProductStore(kv repository.KeyValueStore, key string, logger *zap.Logger) repository.ProductStore {
	if key == "" {
		key = DefaultProductsKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productStore{
		kv:     kv,
		key:    key,
		logger: logger.Named("store"),
	}
}

// Load reads the collection. A missing key is a first run and not an error;
// an unreadable payload yields an empty collection and a *entity.StorageError.
func (s *productStore) Load(ctx context.Context) ([]entity.Product, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, entity.ErrKeyNotFound) {
		s.logger.Debug("no previous data in local store", zap.String("key", s.key))
		return []entity.Product{}, nil
	}
	if err != nil {
		s.logger.Error("failed to read local store", zap.String("key", s.key), zap.Error(err))
		return []entity.Product{}, &entity.StorageError{Op: "load", Err: err}
	}

	var records []storedProduct
	if err := jsonx.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Error("failed to parse local store", zap.String("key", s.key), zap.Error(err))
		return []entity.Product{}, &entity.StorageError{Op: "parse", Err: err}
	}

	products := make([]entity.Product, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		product := s.fromStored(rec)

		if _, dup := seen[product.ID]; dup || product.ID == "" {
			fresh := uuid.New().String()
			if dup {
				s.logger.Warn("duplicate product id re-keyed",
					zap.String("id", product.ID), zap.String("new_id", fresh))
			}
			product.ID = fresh
		}
		seen[product.ID] = struct{}{}
		products = append(products, product)
	}

	s.logger.Debug("loaded products from local store", zap.Int("count", len(products)))
	return products, nil
}

// Save replaces the persisted collection
func (s *productStore) Save(ctx context.Context, products []entity.Product) error {
	records := make([]storedProduct, 0, len(products))
	for _, p := range products {
		records = append(records, toStored(p))
	}

	data, err := jsonx.Marshal(records)
	if err != nil {
		s.logger.Error("failed to serialize products", zap.Error(err))
		return &entity.StorageError{Op: "serialize", Err: err}
	}

	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("failed to write local store", zap.String("key", s.key), zap.Error(err))
		return &entity.StorageError{Op: "save", Err: err}
	}

	s.logger.Debug("saved products to local store", zap.Int("count", len(products)))
	return nil
}

// Clear removes the persisted collection
func (s *productStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return &entity.StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (s *productStore) fromStored(rec storedProduct) entity.Product {
	createdAt, err := jsonx.ParseTime(rec.CreatedAt)
	if err != nil {
		s.logger.Warn("ignoring unreadable creation date",
			zap.String("id", rec.ID.String()), zap.Error(err))
	}

	if rec.Synced && rec.ServerID == "" {
		s.logger.Warn("product marked synced without server id, treating as local",
			zap.String("id", rec.ID.String()))
	}

	return entity.Product{
		ID:          rec.ID.String(),
		ServerID:    rec.ServerID.String(),
		Name:        rec.Name,
		Price:       rec.Price,
		Description: rec.Description,
		CreatedAt:   createdAt,
	}
}

func toStored(p entity.Product) storedProduct {
	return storedProduct{
		ID:          jsonx.ID(p.ID),
		ServerID:    jsonx.ID(p.ServerID),
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   jsonx.FormatTime(p.CreatedAt),
		Synced:      p.Synced(),
	}
}
