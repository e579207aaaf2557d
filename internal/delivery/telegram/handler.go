package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cast"
	"github.com/yourusername/productsync/internal/delivery/render"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/usecase"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 4000
	updateWorkers    = 8
	maxUploadSize    = 5 * 1024 * 1024
	exportFileName   = "products.xlsx"
)

// botAPI subset of *tgbotapi.BotAPI used by the handler
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// BotHandler Telegram front end for the product collection
type BotHandler struct {
	bot          botAPI
	username     string
	notifyChatID int64
	products     usecase.ProductUseCase
	parser       repository.ExcelParser
	logger       *zap.Logger

	download func(ctx context.Context, fileID string) ([]byte, error)
	notifyCh chan []entity.Product
	wg       sync.WaitGroup
}

// NewBotHandler connects to the Bot API with token
func NewBotHandler(
	token string,
	notifyChatID int64,
	products usecase.ProductUseCase,
	parser repository.ExcelParser,
	logger *zap.Logger,
) (*BotHandler, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := newBotHandler(bot, notifyChatID, products, parser, logger)
	h.username = bot.Self.UserName
	h.download = func(ctx context.Context, fileID string) ([]byte, error) {
		return downloadFile(ctx, bot, fileID)
	}
	return h, nil
}

func newBotHandler(
	bot botAPI,
	notifyChatID int64,
	products usecase.ProductUseCase,
	parser repository.ExcelParser,
	logger *zap.Logger,
) *BotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotHandler{
		bot:          bot,
		notifyChatID: notifyChatID,
		products:     products,
		parser:       parser,
		logger:       logger.Named("telegram"),
		notifyCh:     make(chan []entity.Product, 1),
	}
}

// Start polls for updates until ctx is cancelled
func (h *BotHandler) Start(ctx context.Context) error {
	h.logger.Info("bot started", zap.String("username", h.username))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(updateWorkers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	if h.notifyChatID != 0 {
		unsubscribe := h.products.Subscribe(h.enqueueNotification)
		defer unsubscribe()

		h.wg.Add(1)
		go h.notifyLoop(ctx)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("bot stopping")
			h.bot.StopReceivingUpdates()
			h.wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				cancel()
				h.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}

			message := update.Message
			h.wg.Add(1)
			err := pool.Submit(func() {
				defer h.wg.Done()
				h.handleMessage(ctx, message)
			})
			if err != nil {
				h.wg.Done()
				h.logger.Error("failed to schedule update", zap.Int("update_id", update.UpdateID), zap.Error(err))
			}
		}
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	if message.Document != nil {
		h.handleDocumentMessage(ctx, message)
		return
	}

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	if strings.TrimSpace(message.Text) != "" {
		h.sendMessage(message.Chat.ID, "Unknown input. /help lists the available commands.")
	}
}

func (h *BotHandler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start", "help":
		h.sendMessage(chatID, helpMessage)
	case "list":
		h.sendMessage(chatID, render.ProductList(h.products.List(ctx)))
	case "add":
		h.handleAddCommand(ctx, chatID, args)
	case "edit":
		h.handleEditCommand(ctx, chatID, args)
	case "delete":
		h.handleDeleteCommand(ctx, chatID, args)
	case "sync":
		h.handleSyncCommand(ctx, chatID)
	case "clear":
		h.handleClearCommand(ctx, chatID)
	case "export":
		h.handleExportCommand(ctx, chatID)
	default:
		h.sendMessage(chatID, "Unknown command. /help lists the available commands.")
	}
}

func (h *BotHandler) handleAddCommand(ctx context.Context, chatID int64, args string) {
	in, err := parseProductArgs(strings.Split(args, ";"))
	if err != nil {
		h.sendMessage(chatID, "Usage: /add name;price;description\n"+err.Error())
		return
	}

	p, err := h.products.Add(ctx, in)
	if h.replyError(chatID, "add", err) {
		return
	}
	h.sendMessage(chatID, "Product added\n\n"+render.Product(p))
}

func (h *BotHandler) handleEditCommand(ctx context.Context, chatID int64, args string) {
	parts := strings.Split(args, ";")
	id := strings.TrimSpace(parts[0])
	if id == "" || len(parts) < 3 {
		h.sendMessage(chatID, "Usage: /edit id;name;price;description")
		return
	}

	in, err := parseProductArgs(parts[1:])
	if err != nil {
		h.sendMessage(chatID, "Usage: /edit id;name;price;description\n"+err.Error())
		return
	}

	p, err := h.products.Edit(ctx, id, in)
	if h.replyError(chatID, "edit", err) {
		return
	}
	h.sendMessage(chatID, "Product updated\n\n"+render.Product(p))
}

func (h *BotHandler) handleDeleteCommand(ctx context.Context, chatID int64, id string) {
	if id == "" {
		h.sendMessage(chatID, "Usage: /delete id")
		return
	}

	if h.replyError(chatID, "delete", h.products.Delete(ctx, id)) {
		return
	}
	h.sendMessage(chatID, "Product deleted locally")
}

func (h *BotHandler) handleSyncCommand(ctx context.Context, chatID int64) {
	h.sendMessage(chatID, "Synchronizing...")

	report, err := h.products.Synchronize(ctx)
	if errors.Is(err, entity.ErrSyncInProgress) {
		h.sendMessage(chatID, "A synchronization is already running, try again shortly.")
		return
	}
	if h.replyError(chatID, "sync", err) {
		return
	}
	h.sendMessage(chatID, render.SyncReport(report))
}

func (h *BotHandler) handleClearCommand(ctx context.Context, chatID int64) {
	if h.replyError(chatID, "clear", h.products.ClearAll(ctx)) {
		return
	}
	h.sendMessage(chatID, "All local products removed")
}

func (h *BotHandler) handleExportCommand(ctx context.Context, chatID int64) {
	var buf bytes.Buffer
	if err := h.parser.WriteProducts(ctx, &buf, h.products.List(ctx)); err != nil {
		h.logger.Error("export failed", zap.Error(err))
		h.sendMessage(chatID, "Export failed: "+err.Error())
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: exportFileName, Bytes: buf.Bytes()})
	if _, err := h.bot.Send(doc); err != nil {
		h.logger.Error("failed to send export", zap.Error(err))
	}
}

func (h *BotHandler) handleDocumentMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	doc := message.Document

	if doc.FileSize > maxUploadSize {
		h.sendMessage(chatID, "The file must be smaller than 5MB")
		return
	}
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		h.sendMessage(chatID, "Only Excel files (.xlsx) can be imported")
		return
	}

	data, err := h.download(ctx, doc.FileID)
	if err != nil {
		h.logger.Error("file download failed", zap.String("file", doc.FileName), zap.Error(err))
		h.sendMessage(chatID, "Could not download the file")
		return
	}

	rows, err := h.parser.ParseProductsFromBytes(ctx, data, doc.FileName)
	if err != nil {
		h.logger.Warn("spreadsheet rejected", zap.String("file", doc.FileName), zap.Error(err))
		h.sendMessage(chatID, "Could not read the spreadsheet: "+err.Error())
		return
	}

	count, err := h.products.Import(ctx, rows)
	if h.replyError(chatID, "import", err) {
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("Imported %d products from %s", count, doc.FileName))
}

// replyError reports err to the chat and returns true when the operation did
// not happen. Storage failures leave the mutation in place, so they only warn.
func (h *BotHandler) replyError(chatID int64, op string, err error) bool {
	if err == nil {
		return false
	}

	var (
		validationErr *entity.ValidationError
		storageErr    *entity.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		h.sendMessage(chatID, err.Error())
		return true
	case errors.Is(err, entity.ErrProductNotFound):
		h.sendMessage(chatID, "Product not found")
		return true
	case errors.As(err, &storageErr):
		h.logger.Error("local store failed", zap.String("op", op), zap.Error(err))
		h.sendMessage(chatID, "Warning: changes could not be saved locally: "+storageErr.Error())
		return false
	default:
		h.logger.Error("command failed", zap.String("op", op), zap.Error(err))
		h.sendMessage(chatID, fmt.Sprintf("%s failed: %v", op, err))
		return true
	}
}

func (h *BotHandler) enqueueNotification(products []entity.Product) {
	for {
		select {
		case h.notifyCh <- products:
			return
		default:
		}
		// keep only the latest snapshot
		select {
		case <-h.notifyCh:
		default:
		}
	}
}

func (h *BotHandler) notifyLoop(ctx context.Context) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case products := <-h.notifyCh:
			h.sendMessage(h.notifyChatID, render.ProductList(products))
		}
	}
}

func (h *BotHandler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncateString(text, maxMessageLength))
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// parseProductArgs reads name;price;description
func parseProductArgs(parts []string) (entity.ProductInput, error) {
	if len(parts) < 2 {
		return entity.ProductInput{}, fmt.Errorf("name and price are required")
	}

	raw := strings.ReplaceAll(strings.TrimSpace(parts[1]), ",", "")
	price, err := cast.ToFloat64E(raw)
	if err != nil {
		return entity.ProductInput{}, fmt.Errorf("invalid price %q", parts[1])
	}

	in := entity.ProductInput{
		Name:  strings.TrimSpace(parts[0]),
		Price: price,
	}
	if len(parts) > 2 {
		in.Description = strings.TrimSpace(strings.Join(parts[2:], ";"))
	}
	return in, nil
}

func truncateString(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func downloadFile(ctx context.Context, bot *tgbotapi.BotAPI, fileID string) ([]byte, error) {
	file, err := bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := bot.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadSize+1))
}

const helpMessage = `Product manager

/list - show all products
/add name;price;description - add a local product
/edit id;name;price;description - edit a product
/delete id - delete a product locally
/sync - pull remote products and push local ones
/clear - remove every local product
/export - download the collection as Excel

Send an .xlsx file to import products.`
