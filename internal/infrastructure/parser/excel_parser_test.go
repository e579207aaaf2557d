package parser

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/productsync/internal/domain/entity"
	"go.uber.org/zap/zaptest"
)

func workbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, axis, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParse_HeaderMapping(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Descripcion", "Precio", "Nombre"},
		{"inalámbrico", "$45", "Mouse"},
		{"", "1,299.50", "Monitor"},
		{"", "", ""},
		{"sin nombre", "10", ""},
	})

	p := NewExcelParser(zaptest.NewLogger(t))
	products, err := p.ParseProductsFromBytes(context.Background(), data, "catalog.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []entity.ProductInput{
		{Name: "Mouse", Price: 45, Description: "inalámbrico"},
		{Name: "Monitor", Price: 1299.50},
	}, products)
}

func TestParse_Headerless(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Mouse", 25000, "óptico"},
		{"Teclado", "180000"},
	})

	p := NewExcelParser(zaptest.NewLogger(t))
	products, err := p.ParseProductsFromBytes(context.Background(), data, "catalog.xlsx")
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Mouse", products[0].Name)
	assert.Equal(t, 25000.0, products[0].Price)
	assert.Equal(t, "óptico", products[0].Description)
	assert.Equal(t, 180000.0, products[1].Price)
}

func TestParse_MissingPriceLeftForValidation(t *testing.T) {
	data := workbook(t, [][]interface{}{
		{"Name", "Price"},
		{"Mouse"},
	})

	p := NewExcelParser(zaptest.NewLogger(t))
	products, err := p.ParseProductsFromBytes(context.Background(), data, "catalog.xlsx")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Zero(t, products[0].Price)
}

func TestParse_Errors(t *testing.T) {
	p := NewExcelParser(zaptest.NewLogger(t))

	_, err := p.ParseProductsFromBytes(context.Background(), []byte("not a workbook"), "bad.xlsx")
	assert.Error(t, err)

	_, err = p.ParseProductsFromBytes(context.Background(), workbook(t, [][]interface{}{{"Name", "Price"}}), "empty.xlsx")
	assert.ErrorIs(t, err, ErrNoProducts)

	_, err = p.ParseProductsFromBytes(context.Background(), workbook(t, [][]interface{}{
		{"Name", "Price"},
		{"Mouse", "cheap"},
	}), "bad-price.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParsePrice(t *testing.T) {
	tests := map[string]float64{
		"45":        45,
		"$45":       45,
		"1,299.50":  1299.5,
		" 2 500 ":   2500,
		"19.99 USD": 19.99,
	}
	for raw, want := range tests {
		got, err := parsePrice(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parsePrice("abc")
	assert.Error(t, err)
}

func TestWriteProducts_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	products := []entity.Product{
		{ID: "a", ServerID: "r1", Name: "Mouse", Price: 25000, CreatedAt: created},
		{ID: "b", Name: "Teclado", Price: 180000, Description: "mecánico", CreatedAt: created},
	}

	p := NewExcelParser(zaptest.NewLogger(t))
	path := filepath.Join(t.TempDir(), "export.xlsx")

	var buf bytes.Buffer
	require.NoError(t, p.WriteProducts(context.Background(), &buf, products))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Server ID", "Name", "Price", "Description", "Created At", "Status"}, rows[0])
	assert.Equal(t, "r1", rows[1][1])
	assert.Equal(t, "synced", rows[1][6])
	assert.Equal(t, "local", rows[2][6])

	imported, err := p.ParseProducts(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "Teclado", imported[1].Name)
	assert.Equal(t, 180000.0, imported[1].Price)
	assert.Equal(t, "mecánico", imported[1].Description)
}
