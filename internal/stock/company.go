package stock

import (
	"context"
	"fmt"

	"BizBooks/internal/store"
	"BizBooks/internal/validation"
)

// CompanyKind selects the schema a new company partition is created with.
type CompanyKind string

const (
	KindDated  CompanyKind = "dated"
	KindWeekly CompanyKind = "weekly"
)

// Companies manages the named stock partitions. The ledger partition is
// distinguished: it never shows up in the company list and cannot be
// deleted through here.
type Companies struct {
	store           store.Store
	ledgerPartition string
}

func NewCompanies(st store.Store, ledgerPartition string) *Companies {
	return &Companies{store: st, ledgerPartition: ledgerPartition}
}

// List returns every company partition in backend order.
func (c *Companies) List(ctx context.Context) ([]string, error) {
	names, err := c.store.ListPartitions(ctx)
	if err != nil {
		return nil, err
	}
	companies := make([]string, 0, len(names))
	for _, name := range names {
		if name == c.ledgerPartition {
			continue
		}
		companies = append(companies, name)
	}
	return companies, nil
}

// Create adds a new company partition with the header for its kind.
func (c *Companies) Create(ctx context.Context, name string, kind CompanyKind) error {
	if err := validation.NonEmpty("company", name); err != nil {
		return err
	}
	if name == c.ledgerPartition {
		return validation.Errorf("company", "%q is reserved for the ledger", name)
	}
	var header store.Row
	switch kind {
	case KindWeekly:
		header = WeeklyHeader
	case KindDated, "":
		header = DatedHeader
	default:
		return validation.Errorf("kind", "unknown company kind %q", kind)
	}
	return c.store.CreatePartition(ctx, name, header)
}

// Delete removes a company partition and all of its rows.
func (c *Companies) Delete(ctx context.Context, name string) error {
	if name == c.ledgerPartition {
		return fmt.Errorf("the ledger partition cannot be deleted")
	}
	return c.store.DeletePartition(ctx, name)
}
