package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"go.uber.org/zap"
)

// Observer receives a copy of the collection after every successful mutation
type Observer func(products []entity.Product)

// ProductUseCase owns the local product collection
type ProductUseCase interface {
	// Load reads the collection from the local store
	Load(ctx context.Context) error

	// Add validates and appends a new local product
	Add(ctx context.Context, in entity.ProductInput) (entity.Product, error)

	// Edit replaces name, price and description of an existing product
	Edit(ctx context.Context, id string, in entity.ProductInput) (entity.Product, error)

	// Delete removes a product locally. The remote copy is left alone.
	Delete(ctx context.Context, id string) error

	// Get returns one product by local id
	Get(ctx context.Context, id string) (entity.Product, error)

	// List returns a copy of the collection in insertion order
	List(ctx context.Context) []entity.Product

	// ClearAll empties the collection and removes the stored key
	ClearAll(ctx context.Context) error

	// Import appends every row as a local product, or none if any row is invalid
	Import(ctx context.Context, rows []entity.ProductInput) (int, error)

	// Synchronize reconciles the collection with the remote resource
	Synchronize(ctx context.Context) (entity.SyncReport, error)

	// Subscribe registers an observer; the returned func removes it
	Subscribe(observer Observer) func()
}

type productUseCase struct {
	store      repository.ProductStore
	reconciler *Reconciler
	logger     *zap.Logger

	mu       sync.Mutex
	products []entity.Product

	syncing atomic.Bool

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	newID func() string
	now   func() time.Time
}

// NewProductUseCase creates the state owner. Call Load before serving requests.
func NewProductUseCase(store repository.ProductStore, reconciler *Reconciler, logger *zap.Logger) ProductUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productUseCase{
		store:      store,
		reconciler: reconciler,
		logger:     logger.Named("products"),
		products:   []entity.Product{},
		observers:  make(map[int]Observer),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

func (u *productUseCase) Load(ctx context.Context) error {
	products, err := u.store.Load(ctx)
	if products == nil {
		products = []entity.Product{}
	}

	u.mu.Lock()
	u.products = products
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	if err != nil {
		u.logger.Error("failed to load products, starting empty", zap.Error(err))
		return err
	}

	u.logger.Info("products loaded", zap.Int("count", len(snapshot)))
	u.notify(snapshot)
	return nil
}

func (u *productUseCase) Add(ctx context.Context, in entity.ProductInput) (entity.Product, error) {
	in, err := ValidateProductInput(in)
	if err != nil {
		return entity.Product{}, err
	}

	product := entity.Product{
		ID:          u.newID(),
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		CreatedAt:   u.createdAt(),
	}

	u.mu.Lock()
	u.products = append(u.products, product)
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	u.logger.Info("product added", zap.String("id", product.ID), zap.String("name", product.Name))
	return product, u.commit(ctx, snapshot)
}

func (u *productUseCase) Edit(ctx context.Context, id string, in entity.ProductInput) (entity.Product, error) {
	in, err := ValidateProductInput(in)
	if err != nil {
		return entity.Product{}, err
	}

	u.mu.Lock()
	idx := u.indexOf(id)
	if idx < 0 {
		u.mu.Unlock()
		return entity.Product{}, fmt.Errorf("edit %q: %w", id, entity.ErrProductNotFound)
	}
	p := &u.products[idx]
	p.Name = in.Name
	p.Price = in.Price
	p.Description = in.Description
	product := *p
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	u.logger.Info("product updated", zap.String("id", product.ID))
	return product, u.commit(ctx, snapshot)
}

func (u *productUseCase) Delete(ctx context.Context, id string) error {
	u.mu.Lock()
	idx := u.indexOf(id)
	if idx < 0 {
		u.mu.Unlock()
		return fmt.Errorf("delete %q: %w", id, entity.ErrProductNotFound)
	}
	u.products = append(u.products[:idx], u.products[idx+1:]...)
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	u.logger.Info("product deleted", zap.String("id", id))
	return u.commit(ctx, snapshot)
}

func (u *productUseCase) Get(_ context.Context, id string) (entity.Product, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	idx := u.indexOf(id)
	if idx < 0 {
		return entity.Product{}, fmt.Errorf("get %q: %w", id, entity.ErrProductNotFound)
	}
	return u.products[idx], nil
}

func (u *productUseCase) List(_ context.Context) []entity.Product {
	u.mu.Lock()
	defer u.mu.Unlock()
	return cloneProducts(u.products)
}

func (u *productUseCase) ClearAll(ctx context.Context) error {
	u.mu.Lock()
	u.products = []entity.Product{}
	u.mu.Unlock()

	u.logger.Info("all products cleared")

	var err error
	if clearErr := u.store.Clear(ctx); clearErr != nil {
		u.logger.Error("failed to clear local store", zap.Error(clearErr))
		err = clearErr
	}
	u.notify([]entity.Product{})
	return err
}

func (u *productUseCase) Import(ctx context.Context, rows []entity.ProductInput) (int, error) {
	valid := make([]entity.ProductInput, 0, len(rows))
	for i, row := range rows {
		in, err := ValidateProductInput(row)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i+1, err)
		}
		valid = append(valid, in)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	now := u.createdAt()
	added := make([]entity.Product, 0, len(valid))
	for _, in := range valid {
		added = append(added, entity.Product{
			ID:          u.newID(),
			Name:        in.Name,
			Price:       in.Price,
			Description: in.Description,
			CreatedAt:   now,
		})
	}

	u.mu.Lock()
	u.products = append(u.products, added...)
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	u.logger.Info("products imported", zap.Int("count", len(added)))
	return len(added), u.commit(ctx, snapshot)
}

// createdAt matches the millisecond precision the store persists.
func (u *productUseCase) createdAt() time.Time {
	return u.now().UTC().Truncate(time.Millisecond)
}

func (u *productUseCase) Synchronize(ctx context.Context) (entity.SyncReport, error) {
	if !u.syncing.CompareAndSwap(false, true) {
		return entity.SyncReport{}, entity.ErrSyncInProgress
	}
	defer u.syncing.Store(false)

	local := u.List(ctx)
	merged, report, err := u.reconciler.Synchronize(ctx, local)
	if err != nil {
		return report, err
	}

	pushed := make(map[string]string)
	for _, p := range merged[:len(local)] {
		if p.Synced() {
			pushed[p.ID] = p.ServerID
		}
	}
	pulled := merged[len(local):]

	u.mu.Lock()
	referenced := make(map[string]struct{}, len(u.products))
	for i := range u.products {
		p := &u.products[i]
		if serverID, ok := pushed[p.ID]; ok && !p.Synced() {
			p.MarkSynced(serverID)
		}
		if p.Synced() {
			referenced[p.ServerID] = struct{}{}
		}
	}
	for _, p := range pulled {
		if _, ok := referenced[p.ServerID]; ok {
			continue
		}
		u.products = append(u.products, p)
		referenced[p.ServerID] = struct{}{}
	}
	snapshot := cloneProducts(u.products)
	u.mu.Unlock()

	return report, u.commit(ctx, snapshot)
}

func (u *productUseCase) Subscribe(observer Observer) func() {
	u.obsMu.Lock()
	id := u.nextObs
	u.nextObs++
	u.observers[id] = observer
	u.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			u.obsMu.Lock()
			delete(u.observers, id)
			u.obsMu.Unlock()
		})
	}
}

// commit persists snapshot and notifies observers. A save failure does not
// roll back the in-memory mutation.
func (u *productUseCase) commit(ctx context.Context, snapshot []entity.Product) error {
	err := u.store.Save(ctx, snapshot)
	if err != nil {
		var storageErr *entity.StorageError
		if !errors.As(err, &storageErr) {
			err = &entity.StorageError{Op: "save", Err: err}
		}
		u.logger.Error("failed to persist products", zap.Error(err))
	}
	u.notify(snapshot)
	return err
}

func (u *productUseCase) notify(snapshot []entity.Product) {
	u.obsMu.Lock()
	observers := make([]Observer, 0, len(u.observers))
	for _, o := range u.observers {
		observers = append(observers, o)
	}
	u.obsMu.Unlock()

	for _, o := range observers {
		o(cloneProducts(snapshot))
	}
}

// indexOf expects u.mu to be held
func (u *productUseCase) indexOf(id string) int {
	for i := range u.products {
		if u.products[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneProducts(products []entity.Product) []entity.Product {
	out := make([]entity.Product, len(products))
	copy(out, products)
	return out
}
