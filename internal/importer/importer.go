package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"storefront/internal/domain"
	productservice "storefront/internal/service/product"
)

// Columns is the header every catalog file must carry, in export order.
var Columns = []string{"name", "brand", "price", "image", "category", "description"}

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// RowProblem records a data row that was skipped. Row is 1-based and counts the header.
type RowProblem struct {
	Row int
	Err error
}

// Report summarises one import run.
type Report struct {
	Imported int
	Skipped  int
	Problems []RowProblem
}

// Importer upserts catalog rows keyed by (name, brand).
type Importer struct {
	writer ProductWriter
	logger *log.Logger
}

func New(writer ProductWriter, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Importer{writer: writer, logger: logger}
}

// ImportCSV reads a comma separated catalog with a header row.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may have trailing commas
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read headers: %w", err)
	}
	index, err := headerIndex(headers)
	if err != nil {
		return Report{}, err
	}

	var report Report
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return report, fmt.Errorf("read row %d: %w", row, err)
		}
		if err := i.importRow(ctx, &report, row, record, index); err != nil {
			return report, err
		}
	}
	i.logger.Printf("importer: csv done imported=%d skipped=%d", report.Imported, report.Skipped)
	return report, nil
}

// ImportXLSX reads the first sheet of a workbook; the first row is the header.
func (i *Importer) ImportXLSX(ctx context.Context, r io.ReaderAt, size int64) (Report, error) {
	book, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return Report{}, fmt.Errorf("open workbook: %w", err)
	}
	if len(book.Sheets) == 0 || book.Sheets[0].MaxRow < 1 {
		return Report{}, errors.New("workbook is empty or missing header row")
	}
	sheet := book.Sheets[0]

	index, err := headerIndex(cellStrings(sheet.Rows[0]))
	if err != nil {
		return Report{}, err
	}

	var report Report
	for n := 1; n < len(sheet.Rows); n++ {
		if err := i.importRow(ctx, &report, n+1, cellStrings(sheet.Rows[n]), index); err != nil {
			return report, err
		}
	}
	i.logger.Printf("importer: xlsx done sheet=%s imported=%d skipped=%d", sheet.Name, report.Imported, report.Skipped)
	return report, nil
}

// importRow validates one record. Invalid rows are skipped; a store failure aborts the run.
func (i *Importer) importRow(ctx context.Context, report *Report, row int, record []string, index map[string]int) error {
	if blank(record) {
		return nil
	}
	in := productservice.CreateInput{
		Name:        pick(record, index, "name"),
		Brand:       pick(record, index, "brand"),
		Image:       pick(record, index, "image"),
		Category:    pick(record, index, "category"),
		Description: pick(record, index, "description"),
	}
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		report.skip(row, domain.NewValidationError("price", "must be a decimal number"))
		return nil
	}
	in.Price = price

	p, err := productservice.ToProduct(in)
	if err != nil {
		report.skip(row, err)
		return nil
	}
	if _, err := i.writer.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q (row %d): %w", p.Name, row, err)
	}
	report.Imported++
	return nil
}

func (r *Report) skip(row int, err error) {
	r.Skipped++
	r.Problems = append(r.Problems, RowProblem{Row: row, Err: err})
}

// ExportXLSX writes products as a workbook that ImportXLSX reads back.
func ExportXLSX(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetValue(c)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Brand)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Image)
		row.AddCell().SetValue(string(p.Category))
		row.AddCell().SetValue(p.Description)
	}
	return file.Write(w)
}

func headerIndex(headers []string) (map[string]int, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func cellStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
