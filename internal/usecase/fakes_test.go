package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourusername/productsync/internal/domain/entity"
)

type fakeStore struct {
	mu       sync.Mutex
	products []entity.Product
	loadErr  error
	saveErr  error
	saves    int
	cleared  bool
}

func (s *fakeStore) Load(context.Context) ([]entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return []entity.Product{}, s.loadErr
	}
	return cloneProducts(s.products), nil
}

func (s *fakeStore) Save(_ context.Context, products []entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.products = cloneProducts(products)
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = true
	s.products = nil
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// fakeRemote is an in-memory collection resource. Create assigns r1, r2, ...
type fakeRemote struct {
	mu       sync.Mutex
	records  []entity.RemoteProduct
	nextID   int
	fetchErr error
	failOn   map[string]error
	created  []string
	mutated  int

	// fetchGate, when set, blocks FetchAll until it is closed
	fetchGate    chan struct{}
	fetchStarted chan struct{}
}

func newFakeRemote(records ...entity.RemoteProduct) *fakeRemote {
	return &fakeRemote{records: records, nextID: 1, failOn: map[string]error{}}
}

func (r *fakeRemote) FetchAll(ctx context.Context) ([]entity.RemoteProduct, error) {
	if r.fetchStarted != nil {
		close(r.fetchStarted)
	}
	if r.fetchGate != nil {
		select {
		case <-r.fetchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	out := make([]entity.RemoteProduct, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *fakeRemote) Create(_ context.Context, p entity.RemoteProduct) (*entity.RemoteProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p.Name)
	if err, ok := r.failOn[p.Name]; ok {
		return nil, err
	}

	p.ID = fmt.Sprintf("r%d", r.nextID)
	r.nextID++
	r.records = append(r.records, p)
	return &p, nil
}

func (r *fakeRemote) Update(context.Context, string, entity.RemoteProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutated++
	return errors.New("update not expected")
}

func (r *fakeRemote) Delete(context.Context, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutated++
	return errors.New("delete not expected")
}

func (r *fakeRemote) createdNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.created...)
}
