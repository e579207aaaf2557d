package restapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/infrastructure/jsonx"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// productRequest body sent on POST/PUT; the server owns the id
type productRequest struct {
	Name        string  `json:"nombre"`
	Price       float64 `json:"precio"`
	Description string  `json:"descripcion"`
	CreatedAt   string  `json:"fechaCreacion"`
}

// productPayload record as returned by the collection resource
type productPayload struct {
	ID          jsonx.ID `json:"id"`
	Name        string   `json:"nombre"`
	Price       float64  `json:"precio"`
	Description string   `json:"descripcion"`
	CreatedAt   string   `json:"fechaCreacion"`
}

type client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient REST client for a single collection endpoint, e.g.
// http://localhost:3000/productos. Every call is one round trip; nothing is retried.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) (repository.ProductRemote, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid collection url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.Named("remote"),
	}, nil
}

// FetchAll GET {base}
func (c *client) FetchAll(ctx context.Context) ([]entity.RemoteProduct, error) {
	var payload []productPayload
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &payload); err != nil {
		return nil, err
	}

	products := make([]entity.RemoteProduct, 0, len(payload))
	for _, p := range payload {
		products = append(products, c.fromPayload(p))
	}

	c.logger.Info("GET succeeded", zap.Int("received", len(products)))
	return products, nil
}

// Create POST {base}
func (c *client) Create(ctx context.Context, product entity.RemoteProduct) (*entity.RemoteProduct, error) {
	var created productPayload
	if err := c.do(ctx, http.MethodPost, c.baseURL, toPayload(product), &created); err != nil {
		return nil, err
	}

	result := c.fromPayload(created)
	c.logger.Info("POST succeeded", zap.String("name", product.Name), zap.String("server_id", result.ID))
	return &result, nil
}

// Update PUT {base}/{id}
func (c *client) Update(ctx context.Context, remoteID string, product entity.RemoteProduct) error {
	if remoteID == "" {
		return fmt.Errorf("update: remote id is empty")
	}
	if err := c.do(ctx, http.MethodPut, c.itemURL(remoteID), toPayload(product), nil); err != nil {
		return err
	}

	c.logger.Info("PUT succeeded", zap.String("server_id", remoteID))
	return nil
}

// Delete DELETE {base}/{id}
func (c *client) Delete(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return fmt.Errorf("delete: remote id is empty")
	}
	if err := c.do(ctx, http.MethodDelete, c.itemURL(remoteID), nil, nil); err != nil {
		return err
	}

	c.logger.Info("DELETE succeeded", zap.String("server_id", remoteID))
	return nil
}

func (c *client) itemURL(remoteID string) string {
	return c.baseURL + "/" + url.PathEscape(remoteID)
}

func (c *client) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := jsonx.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", method, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("sending request", zap.String("method", method), zap.String("url", target))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return &entity.NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("unexpected status",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return &entity.HTTPError{Op: method, Status: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := jsonx.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, target, err)
	}
	return nil
}

func (c *client) fromPayload(p productPayload) entity.RemoteProduct {
	createdAt, err := jsonx.ParseTime(p.CreatedAt)
	if err != nil {
		c.logger.Warn("remote product has unreadable creation date",
			zap.String("server_id", p.ID.String()), zap.Error(err))
	}
	return entity.RemoteProduct{
		ID:          p.ID.String(),
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   createdAt,
	}
}

func toPayload(p entity.RemoteProduct) productRequest {
	return productRequest{
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		CreatedAt:   jsonx.FormatTime(p.CreatedAt),
	}
}
