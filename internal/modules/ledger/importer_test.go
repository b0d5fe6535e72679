package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := `Date,Exchange,Asset,Type,Amount,Price_USD,Commission
2024-01-01,binance,BTC,BUY,1,10000,0
2024-02-01T12:00:00Z,binance,BTC,buy,1,20000,
2024-03-01,binance,BTC,sell,1.5,30000,1.5
`

	txs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, domain.TransactionTypeBuy, txs[0].Type)
	assert.Equal(t, 0.0, txs[1].Commission)
	assert.Equal(t, 12, txs[1].Date.Hour())
	assert.Equal(t, domain.TransactionTypeSell, txs[2].Type)
	assert.Equal(t, 1.5, txs[2].Commission)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "date,exchange,asset,type,amount\n2024-01-01,binance,BTC,buy,1\n"},
		{name: "bad date", input: "date,exchange,asset,type,amount,price_usd\n01/02/2024,binance,BTC,buy,1,10\n"},
		{name: "bad type", input: "date,exchange,asset,type,amount,price_usd\n2024-01-01,binance,BTC,hold,1,10\n"},
		{name: "bad amount", input: "date,exchange,asset,type,amount,price_usd\n2024-01-01,binance,BTC,buy,x,10\n"},
		{name: "negative price", input: "date,exchange,asset,type,amount,price_usd\n2024-01-01,binance,BTC,buy,1,-10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseCSV_Empty(t *testing.T) {
	txs, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestImportFiles_Glob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2024", "q1"), 0o755))

	header := "date,exchange,asset,type,amount,price_usd\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024", "q1", "buys.csv"),
		[]byte(header+"2024-01-01,binance,BTC,buy,1,10000\n2024-02-01,binance,BTC,buy,1,20000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024", "sells.csv"),
		[]byte(header+"2024-03-01,binance,BTC,sell,1.5,30000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	repo := newTestRepository(t)
	importer := NewImporter(repo, zerolog.New(nil).Level(zerolog.Disabled))

	result, err := importer.ImportFiles(context.Background(), filepath.Join(dir, "**", "*.csv"))
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	assert.Equal(t, 3, result.Imported)

	txs, err := repo.GetAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestImportFiles_NoMatch(t *testing.T) {
	importer := NewImporter(newTestRepository(t), zerolog.New(nil).Level(zerolog.Disabled))
	_, err := importer.ImportFiles(context.Background(), filepath.Join(t.TempDir(), "*.csv"))
	assert.Error(t, err)
}
