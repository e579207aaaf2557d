package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"go.uber.org/zap"
)

// Reconciler aligns the local collection with the remote collection resource.
//
// A run has two phases that never interleave: pull & merge (additive only,
// existing local records are never overwritten) and push (every local-only
// record is created remotely, one request at a time). Edits and deletions are
// not propagated.
type Reconciler struct {
	remote repository.ProductRemote
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// NewReconciler creates a reconciler for remote
func NewReconciler(remote repository.ProductRemote, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		remote: remote,
		logger: logger.Named("reconciler"),
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
}

// Synchronize runs pull & merge followed by push. local is not modified; the
// merged collection is returned. A pull failure aborts the run before
// anything changes. Push failures are per record and only reported.
func (r *Reconciler) Synchronize(ctx context.Context, local []entity.Product) ([]entity.Product, entity.SyncReport, error) {
	report := entity.SyncReport{StartedAt: r.now()}
	r.logger.Info("starting synchronization", zap.Int("local", len(local)))

	merged, pulled, err := r.PullAndMerge(ctx, local)
	if err != nil {
		r.logger.Error("synchronization aborted, pull failed", zap.Error(err))
		return nil, report, err
	}
	report.Pulled = pulled

	merged, pushed, failures := r.Push(ctx, merged)
	report.Pushed = pushed
	report.Failures = failures
	report.Duration = r.now().Sub(report.StartedAt)

	r.logger.Info("synchronization completed",
		zap.Int("pulled", report.Pulled),
		zap.Int("pushed", report.Pushed),
		zap.Int("failed", report.Failed()),
		zap.Duration("elapsed", report.Duration))

	return merged, report, nil
}

// PullAndMerge fetches the remote collection and appends every remote record
// no local record references yet. Running it twice against an unchanged remote
// adds nothing the second time.
func (r *Reconciler) PullAndMerge(ctx context.Context, local []entity.Product) ([]entity.Product, int, error) {
	remoteProducts, err := r.remote.FetchAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("pull remote products: %w", err)
	}

	merged := make([]entity.Product, len(local), len(local)+len(remoteProducts))
	copy(merged, local)

	known := make(map[string]struct{}, len(local))
	for _, p := range local {
		if p.ServerID != "" {
			known[p.ServerID] = struct{}{}
		}
	}

	added := 0
	for _, rp := range remoteProducts {
		if rp.ID == "" {
			r.logger.Warn("skipping remote product without id", zap.String("name", rp.Name))
			continue
		}
		if _, exists := known[rp.ID]; exists {
			continue
		}

		product := entity.Product{
			ID:          r.newID(),
			Name:        rp.Name,
			Price:       rp.Price,
			Description: rp.Description,
			CreatedAt:   rp.CreatedAt,
		}
		product.MarkSynced(rp.ID)

		merged = append(merged, product)
		known[rp.ID] = struct{}{}
		added++
	}

	r.logger.Info("pull merged", zap.Int("received", len(remoteProducts)), zap.Int("added", added))
	return merged, added, nil
}

// Push creates every local-only record remotely, in collection order, waiting
// for each response before sending the next. Synced records are skipped. A
// failed record stays local and the batch continues.
func (r *Reconciler) Push(ctx context.Context, products []entity.Product) ([]entity.Product, int, []entity.PushFailure) {
	out := make([]entity.Product, len(products))
	copy(out, products)

	pending := 0
	for _, p := range out {
		if !p.Synced() {
			pending++
		}
	}
	if pending == 0 {
		r.logger.Info("no products pending synchronization")
		return out, 0, nil
	}
	r.logger.Info("pushing local products", zap.Int("pending", pending))

	pushed := 0
	var failures []entity.PushFailure
	for i := range out {
		p := &out[i]
		if p.Synced() {
			continue
		}

		created, err := r.remote.Create(ctx, entity.RemoteProduct{
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
		if err == nil && (created == nil || created.ID == "") {
			err = fmt.Errorf("remote accepted %q without assigning an id", p.Name)
		}
		if err != nil {
			r.logger.Error("push failed", zap.String("id", p.ID), zap.String("name", p.Name), zap.Error(err))
			failures = append(failures, entity.PushFailure{ProductID: p.ID, Name: p.Name, Err: err})
			continue
		}

		p.MarkSynced(created.ID)
		pushed++
	}

	return out, pushed, failures
}
