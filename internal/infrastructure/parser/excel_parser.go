package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
	"github.com/yourusername/productsync/internal/infrastructure/jsonx"
	"go.uber.org/zap"
)

// ExportSheet sheet name used by WriteProducts
const ExportSheet = "Products"

var exportHeader = []interface{}{"ID", "Server ID", "Name", "Price", "Description", "Created At", "Status"}

// ErrNoProducts the workbook has no row with a product name
var ErrNoProducts = errors.New("no products found in spreadsheet")

type excelParser struct {
	logger *zap.Logger
}

// NewExcelParser creates the spreadsheet reader/writer
func NewExcelParser(logger *zap.Logger) repository.ExcelParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excelParser{logger: logger.Named("excel")}
}

// ParseProducts reads the first sheet of the file at filePath
func (e *excelParser) ParseProducts(ctx context.Context, filePath string) ([]entity.ProductInput, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, f)
}

// ParseProductsFromBytes reads an uploaded workbook
func (e *excelParser) ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.ProductInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	return e.parseExcelFile(ctx, f)
}

type columns struct {
	name        int
	price       int
	description int
}

func (e *excelParser) parseExcelFile(ctx context.Context, f *excelize.File) ([]entity.ProductInput, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoProducts
	}

	// A numeric second cell means the sheet starts with data, not a header.
	cols := columns{name: 0, price: 1, description: 2}
	startRow := 0
	if !looksLikeData(rows[0]) {
		cols = mapColumns(rows[0])
		startRow = 1
	}
	e.logger.Debug("spreadsheet layout",
		zap.String("sheet", sheets[0]),
		zap.Int("rows", len(rows)),
		zap.Bool("header", startRow == 1),
		zap.Int("name_col", cols.name),
		zap.Int("price_col", cols.price),
		zap.Int("description_col", cols.description))

	var products []entity.ProductInput
	for i := startRow; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		name := cell(row, cols.name)
		if name == "" {
			e.logger.Debug("skipping row without name", zap.Int("row", i+1))
			continue
		}

		var price float64
		if raw := cell(row, cols.price); raw != "" {
			price, err = parsePrice(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}

		products = append(products, entity.ProductInput{
			Name:        name,
			Price:       price,
			Description: cell(row, cols.description),
		})
	}

	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	e.logger.Info("spreadsheet parsed", zap.Int("products", len(products)))
	return products, nil
}

// WriteProducts writes products to a new workbook with a single sheet
func (e *excelParser) WriteProducts(ctx context.Context, w io.Writer, products []entity.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(ExportSheet, 1, 1, style)
	}

	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}

		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			p.ID,
			p.ServerID,
			p.Name,
			p.Price,
			p.Description,
			jsonx.FormatTime(p.CreatedAt),
			p.Status().String(),
		}
		if err := f.SetSheetRow(ExportSheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(ExportSheet, "A", "B", 38)
	_ = f.SetColWidth(ExportSheet, "C", "C", 30)
	_ = f.SetColWidth(ExportSheet, "E", "F", 30)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("spreadsheet exported", zap.Int("products", len(products)))
	return nil
}

func looksLikeData(first []string) bool {
	if len(first) < 2 {
		return false
	}
	_, err := parsePrice(first[1])
	return err == nil
}

// mapColumns locates columns by header name; unknown headers fall back to
// name, price, description in that order.
func mapColumns(header []string) columns {
	cols := columns{name: -1, price: -1, description: -1}

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.name < 0 && contains(name, "name", "nombre", "producto", "product"):
			cols.name = i
		case cols.price < 0 && contains(name, "price", "precio", "cost", "$"):
			cols.price = i
		case cols.description < 0 && contains(name, "description", "descripcion", "descripción", "detalle"):
			cols.description = i
		}
	}

	if cols.name < 0 {
		cols.name = 0
	}
	if cols.price < 0 {
		cols.price = 1
	}
	if cols.description < 0 {
		cols.description = 2
	}
	return cols
}

func contains(str string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(str, keyword) {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parsePrice accepts plain numbers plus thousands separators and currency marks
func parsePrice(raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}

	for _, mark := range []string{",", " ", "$", "€", "£", "usd", "eur", "cop", "mxn"} {
		s = strings.ReplaceAll(s, mark, "")
	}

	price, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price format: %q", raw)
	}
	return price, nil
}
