package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// TransactionWriter persists a batch of transactions atomically
type TransactionWriter interface {
	CreateMany(ctx context.Context, txs []domain.Transaction) ([]int64, error)
}

// ImportResult summarises an import run
type ImportResult struct {
	Files    []string `json:"files"`
	Imported int      `json:"imported"`
}

// Importer loads transaction CSV files into the ledger
type Importer struct {
	writer TransactionWriter
	log    zerolog.Logger
}

// NewImporter creates a new CSV importer
func NewImporter(writer TransactionWriter, log zerolog.Logger) *Importer {
	return &Importer{
		writer: writer,
		log:    log.With().Str("component", "importer").Logger(),
	}
}

var requiredColumns = []string{"date", "exchange", "asset", "type", "amount", "price_usd"}

// ParseCSV reads transactions from CSV with a header row. Required columns:
// date, exchange, asset, type, amount, price_usd. commission is optional.
// Column order is free and header names are case-insensitive.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var txs []domain.Transaction
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		tx, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func parseRecord(record []string, cols map[string]int) (domain.Transaction, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	number := func(name string) (float64, error) {
		raw := field(name)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad %s %q", domain.ErrInvalidTransaction, name, raw)
		}
		return v, nil
	}

	var tx domain.Transaction
	var err error

	if tx.Date, err = domain.ParseDate(field("date")); err != nil {
		return tx, fmt.Errorf("%w: %v", domain.ErrInvalidTransaction, err)
	}
	if tx.Type, err = domain.ParseTransactionType(field("type")); err != nil {
		return tx, err
	}
	if tx.Amount, err = number("amount"); err != nil {
		return tx, err
	}
	if tx.PriceUSD, err = number("price_usd"); err != nil {
		return tx, err
	}
	if tx.Commission, err = number("commission"); err != nil {
		return tx, err
	}
	tx.Exchange = field("exchange")
	tx.Asset = field("asset")

	return tx, tx.Validate()
}

// ImportFiles imports every file matching a doublestar pattern
// (e.g. "exports/**/*.csv") as one atomic batch
func (i *Importer) ImportFiles(ctx context.Context, pattern string) (*ImportResult, error) {
	files, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(files)

	var all []domain.Transaction
	for _, path := range files {
		txs, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		i.log.Debug().Str("file", path).Int("transactions", len(txs)).Msg("Parsed CSV")
		all = append(all, txs...)
	}

	if len(all) > 0 {
		if _, err := i.writer.CreateMany(ctx, all); err != nil {
			return nil, fmt.Errorf("failed to store imported transactions: %w", err)
		}
	}

	i.log.Info().
		Int("files", len(files)).
		Int("transactions", len(all)).
		Msg("Import complete")

	return &ImportResult{Files: files, Imported: len(all)}, nil
}

func parseFile(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}
