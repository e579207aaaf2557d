package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/productsync/internal/delivery/rest"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/infrastructure/parser"
	"github.com/yourusername/productsync/internal/infrastructure/restapi"
	"github.com/yourusername/productsync/internal/infrastructure/storage"
	"github.com/yourusername/productsync/internal/usecase"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	runtime  *Runtime
	server   *rest.Server
	releases int
	opts     Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	server := rest.NewServer("productos", logger)
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	remote, err := restapi.NewClient(ts.URL+"/productos", ts.Client(), logger)
	require.NoError(t, err)

	store := storage.NewProductStore(storage.NewMemoryKeyValueStore(), "", logger)
	products := usecase.NewProductUseCase(store, usecase.NewReconciler(remote, logger), logger)
	require.NoError(t, products.Load(context.Background()))

	h := &harness{server: server}
	h.runtime = &Runtime{
		Products: products,
		Parser:   parser.NewExcelParser(logger),
		Release:  func() { h.releases++ },
	}
	return h
}

func (h *harness) exec(args ...string) (string, error) {
	root := NewRootCommand(func(_ context.Context, opts Options) (*Runtime, error) {
		h.opts = opts
		return h.runtime, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddListDelete(t *testing.T) {
	h := newHarness(t)

	out, err := h.exec("add", "Teclado", "180,000", "--description", "mecánico")
	require.NoError(t, err)
	assert.Contains(t, out, "Teclado [⚠ Local]")

	out, err = h.exec("list")
	require.NoError(t, err)
	assert.Contains(t, out, "$180000.00")
	assert.Contains(t, out, "mecánico")

	id := h.runtime.Products.List(context.Background())[0].ID
	out, err = h.exec("delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	out, err = h.exec("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No products registered")
	assert.Equal(t, 4, h.releases)
}

func TestAdd_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec("add", "Mouse", "cheap")
	var validationErr *entity.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "price", validationErr.Field)

	_, err = h.exec("add", "ab", "10")
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "name", validationErr.Field)

	_, err = h.exec("add", "Mouse")
	assert.Error(t, err)
	assert.Empty(t, h.runtime.Products.List(context.Background()))
}

func TestEdit(t *testing.T) {
	h := newHarness(t)
	p, err := h.runtime.Products.Add(context.Background(), entity.ProductInput{Name: "Mouse", Price: 10})
	require.NoError(t, err)

	out, err := h.exec("edit", p.ID, "Mouse Pro", "15", "--description", "wireless")
	require.NoError(t, err)
	assert.Contains(t, out, "Mouse Pro")
	assert.Contains(t, out, "wireless")

	out, err = h.exec("edit", p.ID, "Mouse Max", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Mouse Max")
	got, err := h.runtime.Products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "wireless", got.Description, "omitted flag keeps the description")

	_, err = h.exec("edit", p.ID, "Mouse Max", "20", "--description", "")
	require.NoError(t, err)
	got, err = h.runtime.Products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Description, "explicit empty flag clears it")

	_, err = h.exec("edit", "missing", "Mouse", "1")
	assert.ErrorIs(t, err, entity.ErrProductNotFound)
}

func TestSync(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.server.LoadSeed(strings.NewReader(`{"productos":[{"id":"r9","nombre":"Teclado","precio":180000}]}`)))

	_, err := h.exec("add", "Mouse", "25000")
	require.NoError(t, err)

	out, err := h.exec("sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Pulled: 1")
	assert.Contains(t, out, "Pushed: 1")

	out, err = h.exec("list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 synced, 0 local")
}

func TestClear_RequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec("add", "Mouse", "25000")
	require.NoError(t, err)

	_, err = h.exec("clear")
	assert.Error(t, err)
	assert.Len(t, h.runtime.Products.List(context.Background()), 1)

	out, err := h.exec("clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All local products removed")
	assert.Empty(t, h.runtime.Products.List(context.Background()))
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec("add", "Mouse", "25000")
	require.NoError(t, err)
	_, err = h.exec("add", "Teclado", "180000")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "products.xlsx")
	out, err := h.exec("export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 products")

	out, err = h.exec("import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 products")
	assert.Len(t, h.runtime.Products.List(context.Background()), 4)
}

func TestBot_NotConfigured(t *testing.T) {
	h := newHarness(t)
	_, err := h.exec("bot")
	assert.EqualError(t, err, "telegram bot is not configured")
}

func TestFactoryError(t *testing.T) {
	root := NewRootCommand(func(context.Context, Options) (*Runtime, error) { return nil, errors.New("no config") })
	root.SetArgs([]string{"list"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.EqualError(t, root.Execute(), "no config")
}

func TestGlobalFlagsReachFactory(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec("list", "--api-url", "http://example.test/items", "--store", "memory")
	require.NoError(t, err)
	assert.Equal(t, Options{APIURL: "http://example.test/items", StoreDriver: "memory"}, h.opts)
}
