// Package ledger owns party transaction records: date, charge amount,
// payment amount and the derived balance. Records live in the distinguished
// ledger partition of the row store; the engine itself is stateless and
// re-reads the authoritative table on every operation.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"BizBooks/internal/store"
	"BizBooks/internal/validation"
)

// Header is the fixed 5-column ledger schema. Column order is positional
// and validated on every read.
var Header = store.Row{"Party", "Date", "Amount", "Payment", "Balance"}

// Transaction is one ledger record. Index is the logical 0-based position
// within the full table (header excluded). It is NOT a stable identity:
// deleting any earlier row shifts every later index down by one.
type Transaction struct {
	Party   string          `json:"party"`
	Date    string          `json:"date"`
	Charge  decimal.Decimal `json:"charge"`
	Payment decimal.Decimal `json:"payment"`
	Balance decimal.Decimal `json:"balance"`
	Index   int             `json:"index"`
}

type Engine struct {
	store      store.Store
	locks      *store.PartitionLocks
	cumulative bool
}

type Option func(*Engine)

// WithCumulativeBalance switches the engine to running-balance mode: a new
// transaction's balance is the party's previous balance plus charge minus
// payment. The default is the literal per-transaction net (charge - payment,
// independent of history), which is what the business has always stored.
func WithCumulativeBalance() Option {
	return func(e *Engine) { e.cumulative = true }
}

func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, locks: store.NewPartitionLocks()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddTransaction validates the input, computes the balance and appends one
// row. The read-compute-append cycle runs under the partition lock.
func (e *Engine) AddTransaction(ctx context.Context, partition, party, date string, charge, payment decimal.Decimal) (Transaction, error) {
	if err := validation.NonEmpty("party", party); err != nil {
		return Transaction{}, err
	}
	day, err := validation.Date("date", date)
	if err != nil {
		return Transaction{}, err
	}
	if err := validation.NonNegativeAmount("charge", charge); err != nil {
		return Transaction{}, err
	}
	if err := validation.NonNegativeAmount("payment", payment); err != nil {
		return Transaction{}, err
	}

	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return Transaction{}, err
	}
	if err := checkHeader(partition, rows); err != nil {
		return Transaction{}, err
	}

	balance := charge.Sub(payment)
	if e.cumulative {
		prev, err := lastBalance(rows, party)
		if err != nil {
			return Transaction{}, err
		}
		balance = prev.Add(balance)
	}

	tx := Transaction{
		Party:   party,
		Date:    day,
		Charge:  charge,
		Payment: payment,
		Balance: balance,
		Index:   len(rows) - 1,
	}
	row := store.Row{party, day, charge.String(), payment.String(), balance.String()}
	if err := e.store.AppendRow(ctx, partition, row); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// ListByParty returns the party's transactions in table order. The match is
// case-sensitive and exact.
func (e *Engine) ListByParty(ctx context.Context, partition, party string) ([]Transaction, error) {
	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(partition, rows); err != nil {
		return nil, err
	}
	var txs []Transaction
	for i, row := range rows[1:] {
		if row.Get(0) != party {
			continue
		}
		tx, err := parseTransaction(i, row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Parties returns the distinct party names in first-seen table order. This
// feeds the suggestion list in the client.
func (e *Engine) Parties(ctx context.Context, partition string) ([]string, error) {
	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return nil, err
	}
	if err := checkHeader(partition, rows); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var parties []string
	for _, row := range rows[1:] {
		p := row.Get(0)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		parties = append(parties, p)
	}
	return parties, nil
}

// TotalBalance sums the balances of the given transactions.
func TotalBalance(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Balance)
	}
	return total
}

// DeleteTransaction removes the row at the logical 0-based index. The +2
// backend offset (header row plus 1-based positions) is applied here, not
// by the caller. Deletion is positional: after a delete, the same index
// addresses what used to be the next row.
func (e *Engine) DeleteTransaction(ctx context.Context, partition string, index int) error {
	mu := e.locks.Get(partition)
	mu.Lock()
	defer mu.Unlock()

	rows, err := e.store.ListRows(ctx, partition)
	if err != nil {
		return err
	}
	if err := checkHeader(partition, rows); err != nil {
		return err
	}
	if index < 0 || index >= len(rows)-1 {
		return fmt.Errorf("transaction %d: %w", index, store.ErrNotFound)
	}
	return e.store.DeleteRow(ctx, partition, index+2)
}

func checkHeader(partition string, rows []store.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("%q has no header row: %w", partition, store.ErrSchemaMismatch)
	}
	header := rows[0]
	for i, want := range Header {
		if !strings.EqualFold(header.Get(i), want) {
			return fmt.Errorf("%q column %d is %q, want %q: %w",
				partition, i+1, header.Get(i), want, store.ErrSchemaMismatch)
		}
	}
	return nil
}

func parseTransaction(index int, row store.Row) (Transaction, error) {
	charge, err := parseAmount(row.Get(2))
	if err != nil {
		return Transaction{}, fmt.Errorf("row %d amount %q: %w", index, row.Get(2), store.ErrSchemaMismatch)
	}
	payment, err := parseAmount(row.Get(3))
	if err != nil {
		return Transaction{}, fmt.Errorf("row %d payment %q: %w", index, row.Get(3), store.ErrSchemaMismatch)
	}
	balance, err := parseAmount(row.Get(4))
	if err != nil {
		return Transaction{}, fmt.Errorf("row %d balance %q: %w", index, row.Get(4), store.ErrSchemaMismatch)
	}
	return Transaction{
		Party:   row.Get(0),
		Date:    row.Get(1),
		Charge:  charge,
		Payment: payment,
		Balance: balance,
		Index:   index,
	}, nil
}

func parseAmount(cell string) (decimal.Decimal, error) {
	if cell == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cell)
}

func lastBalance(rows []store.Row, party string) (decimal.Decimal, error) {
	prev := decimal.Zero
	for _, row := range rows[1:] {
		if row.Get(0) != party {
			continue
		}
		b, err := parseAmount(row.Get(4))
		if err != nil {
			return decimal.Zero, fmt.Errorf("balance %q: %w", row.Get(4), store.ErrSchemaMismatch)
		}
		prev = b
	}
	return prev, nil
}
