// Package catalogimport loads product catalog data from CSV files.
package catalogimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Column names
const (
	ColumnID          = "id"
	ColumnName        = "name"
	ColumnPrice       = "price"
	ColumnDescription = "description"
	ColumnImage       = "image"
	ColumnCategory    = "category"
)

// RequiredColumns must appear in the header row
var RequiredColumns = []string{ColumnID, ColumnName, ColumnPrice}

const defaultBatchSize = 100

// Writer stores products in the catalog
type Writer interface {
	Upsert(ctx context.Context, products ...*catalog.Product) error
}

// Loader parses product CSV files and writes them to a catalog
type Loader struct {
	writer    Writer
	delimiter rune
	batchSize int
	logger    *zap.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(l *Loader) {
		l.delimiter = d
	}
}

// WithBatchSize sets how many products go into one Upsert call
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// NewLoader creates a loader writing to w
func NewLoader(w Writer, logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		writer:    w,
		delimiter: ',',
		batchSize: defaultBatchSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Parse reads and validates every row. When any row is invalid it returns
// RowErrors and no products.
func (l *Loader) Parse(r io.Reader) ([]*catalog.Product, error) {
	p, err := newParser(r, l.delimiter)
	if err != nil {
		return nil, err
	}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	if missing := p.missingHeaders(RequiredColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrMissingHeader, missing)
	}

	var (
		products []*catalog.Product
		rowErrs  RowErrors
		seen     = make(map[catalog.ProductID]int)
	)
	for {
		row, err := p.readRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: p.currentRow, Code: ErrCodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		product, errs := parseRow(row)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		if first, dup := seen[product.ID]; dup {
			rowErrs = append(rowErrs, RowError{
				Row:     row.LineNumber,
				Column:  ColumnID,
				Code:    ErrCodeDuplicateInFile,
				Message: fmt.Sprintf("duplicate of row %d", first),
				Value:   product.ID.String(),
			})
			continue
		}
		seen[product.ID] = row.LineNumber
		products = append(products, product)
	}

	if len(rowErrs) > 0 {
		return nil, rowErrs
	}
	if len(products) == 0 {
		return nil, ErrNoDataRows
	}
	return products, nil
}

func parseRow(row *Row) (*catalog.Product, []RowError) {
	var errs []RowError
	required := func(col string) string {
		v := row.Get(col)
		if v == "" {
			errs = append(errs, RowError{Row: row.LineNumber, Column: col, Code: ErrCodeRequiredField, Message: "value is required"})
		}
		return v
	}

	rawID := required(ColumnID)
	name := required(ColumnName)
	rawPrice := required(ColumnPrice)

	var id catalog.ProductID
	if rawID != "" {
		parsed, err := catalog.ParseProductID(rawID)
		if err != nil {
			errs = append(errs, RowError{Row: row.LineNumber, Column: ColumnID, Code: ErrCodeInvalidFormat, Message: err.Error(), Value: rawID})
		}
		id = parsed
	}

	var price decimal.Decimal
	if rawPrice != "" {
		parsed, err := decimal.NewFromString(rawPrice)
		switch {
		case err != nil:
			errs = append(errs, RowError{Row: row.LineNumber, Column: ColumnPrice, Code: ErrCodeInvalidFormat, Message: "not a decimal number", Value: rawPrice})
		case parsed.IsNegative():
			errs = append(errs, RowError{Row: row.LineNumber, Column: ColumnPrice, Code: ErrCodeInvalidRange, Message: "price cannot be negative", Value: rawPrice})
		case !catalog.FitsPriceScale(parsed):
			errs = append(errs, RowError{Row: row.LineNumber, Column: ColumnPrice, Code: ErrCodeInvalidFormat, Message: "price cannot have more than 2 decimal places", Value: rawPrice})
		}
		price = parsed
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &catalog.Product{
		ID:          id,
		Name:        name,
		Description: row.Get(ColumnDescription),
		Price:       price,
		Image:       row.Get(ColumnImage),
		Category:    row.Get(ColumnCategory),
	}, nil
}

// Load parses r and upserts the products in batches. It returns the number
// of products written.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	products, err := l.Parse(r)
	if err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(products); start += l.batchSize {
		end := min(start+l.batchSize, len(products))
		if err := l.writer.Upsert(ctx, products[start:end]...); err != nil {
			return written, fmt.Errorf("failed to write products: %w", err)
		}
		written = end
	}

	l.logger.Info("Catalog products loaded", zap.Int("count", written))
	return written, nil
}

// LoadFile opens path and loads it
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}
