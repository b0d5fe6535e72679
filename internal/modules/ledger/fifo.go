// Package ledger implements the FIFO lot ledger, the PNL service built on it
// and the SQLite transaction store that feeds both.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// Lot is an open portion of a single buy transaction
type Lot struct {
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	PriceUSD       decimal.Decimal `json:"price_usd"`
	Commission     decimal.Decimal `json:"commission"`
}

// CostBasis is the price paid for the remaining amount plus the remaining
// share of the buy commission
func (l Lot) CostBasis() decimal.Decimal {
	cost := l.Amount.Mul(l.PriceUSD)
	if l.OriginalAmount.IsPositive() {
		cost = cost.Add(l.Commission.Mul(l.Amount).Div(l.OriginalAmount))
	}
	return cost
}

// Match records how much of a lot one sell consumed and what it realized
type Match struct {
	LotDate     time.Time       `json:"lot_date"`
	SellDate    time.Time       `json:"sell_date"`
	Amount      decimal.Decimal `json:"amount"`
	LotPrice    decimal.Decimal `json:"lot_price"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	RealizedPNL decimal.Decimal `json:"realized_pnl"`
}

// Ledger is the ordered lot queue of one (exchange, asset) pair.
// The zero value is not usable; use NewLedger.
type Ledger struct {
	exchange string
	asset    string
	lots     []Lot
	matches  []Match
	realized decimal.Decimal
}

// NewLedger creates an empty ledger
func NewLedger(exchange, asset string) *Ledger {
	return &Ledger{
		exchange: exchange,
		asset:    asset,
		realized: decimal.Zero,
	}
}

// Exchange returns the exchange this ledger tracks
func (l *Ledger) Exchange() string { return l.exchange }

// Asset returns the asset this ledger tracks
func (l *Ledger) Asset() string { return l.asset }

// Apply feeds one transaction into the ledger
func (l *Ledger) Apply(tx domain.Transaction) error {
	switch tx.Type {
	case domain.TransactionTypeBuy:
		l.buy(tx)
		return nil
	case domain.TransactionTypeSell:
		return l.sell(tx)
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidTransaction, tx.Type)
	}
}

func (l *Ledger) buy(tx domain.Transaction) {
	amount := decimal.NewFromFloat(tx.Amount)
	l.lots = append(l.lots, Lot{
		Date:           tx.Date,
		Amount:         amount,
		OriginalAmount: amount,
		PriceUSD:       decimal.NewFromFloat(tx.PriceUSD),
		Commission:     decimal.NewFromFloat(tx.Commission),
	})
}

// sell consumes lots from the front of the queue. A sell larger than the
// open amount is rejected and leaves the ledger untouched.
func (l *Ledger) sell(tx domain.Transaction) error {
	sellAmount := decimal.NewFromFloat(tx.Amount)
	available := l.RemainingAmount()
	if sellAmount.GreaterThan(available) {
		return &InsufficientLotsError{
			Exchange:  l.exchange,
			Asset:     l.asset,
			Requested: sellAmount,
			Available: available,
		}
	}

	sellPrice := decimal.NewFromFloat(tx.PriceUSD)
	sellCommission := decimal.NewFromFloat(tx.Commission)
	toSell := sellAmount

	var remaining []Lot
	for _, lot := range l.lots {
		if toSell.IsZero() {
			remaining = append(remaining, lot)
			continue
		}

		consumed := decimal.Min(lot.Amount, toSell)
		pnl := consumed.Mul(sellPrice).
			Sub(consumed.Mul(lot.PriceUSD)).
			Sub(consumed.Div(sellAmount).Mul(sellCommission)).
			Sub(consumed.Div(lot.OriginalAmount).Mul(lot.Commission))

		l.realized = l.realized.Add(pnl)
		l.matches = append(l.matches, Match{
			LotDate:     lot.Date,
			SellDate:    tx.Date,
			Amount:      consumed,
			LotPrice:    lot.PriceUSD,
			SellPrice:   sellPrice,
			RealizedPNL: pnl,
		})

		toSell = toSell.Sub(consumed)
		if lot.Amount.GreaterThan(consumed) {
			lot.Amount = lot.Amount.Sub(consumed)
			remaining = append(remaining, lot)
		}
	}

	l.lots = remaining
	return nil
}

// Lots returns a copy of the open lots, oldest first
func (l *Ledger) Lots() []Lot {
	out := make([]Lot, len(l.lots))
	copy(out, l.lots)
	return out
}

// Matches returns every lot/sell pairing made so far
func (l *Ledger) Matches() []Match {
	out := make([]Match, len(l.matches))
	copy(out, l.matches)
	return out
}

// RemainingAmount is the total open amount
func (l *Ledger) RemainingAmount() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots {
		total = total.Add(lot.Amount)
	}
	return total
}

// CostBasis is the FIFO cost basis of the open lots
func (l *Ledger) CostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots {
		total = total.Add(lot.CostBasis())
	}
	return total
}

// RealizedPNL is the running realized profit of all sells applied so far
func (l *Ledger) RealizedPNL() decimal.Decimal {
	return l.realized
}

// SortTransactions returns a copy of txs in ascending date order.
// Transactions on the same date keep their relative (insertion) order.
func SortTransactions(txs []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Replay builds the ledger of one (exchange, asset) pair from its history
func Replay(exchange, asset string, txs []domain.Transaction) (*Ledger, error) {
	l := NewLedger(exchange, asset)
	for _, tx := range SortTransactions(txs) {
		if err := l.Apply(tx); err != nil {
			return nil, fmt.Errorf("failed to replay %s/%s: %w", exchange, asset, err)
		}
	}
	return l, nil
}

type pairKey struct {
	exchange string
	asset    string
}

// ReplayAll builds one ledger per (exchange, asset) pair present in txs,
// in order of first appearance
func ReplayAll(txs []domain.Transaction) ([]*Ledger, error) {
	grouped := make(map[pairKey][]domain.Transaction)
	var order []pairKey
	for _, tx := range txs {
		key := pairKey{exchange: tx.Exchange, asset: tx.Asset}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], tx)
	}

	ledgers := make([]*Ledger, 0, len(order))
	for _, key := range order {
		l, err := Replay(key.exchange, key.asset, grouped[key])
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, nil
}
