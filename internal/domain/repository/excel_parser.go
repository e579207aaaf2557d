package repository

import (
	"context"
	"io"

	"github.com/yourusername/productsync/internal/domain/entity"
)

// ExcelParser reads and writes product spreadsheets
type ExcelParser interface {
	// ParseProducts reads product rows from an Excel file
	ParseProducts(ctx context.Context, filePath string) ([]entity.ProductInput, error)

	// ParseProductsFromBytes reads product rows from an uploaded file
	ParseProductsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.ProductInput, error)

	// WriteProducts writes the collection as a single-sheet workbook
	WriteProducts(ctx context.Context, w io.Writer, products []entity.Product) error
}
