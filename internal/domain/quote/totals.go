package quote

import (
	"context"
	"sort"
)

// CurrencyResolver maps a line-item description to a currency, falling back
// to the clinic's home currency when nothing in the catalog matches.
type CurrencyResolver interface {
	CurrencyFor(ctx context.Context, description string) string
}

// Subtotal is one per-currency bucket of a quote's totals.
type Subtotal struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

// RecomputeItems rewrites every item's total as quantity times unit price.
// Stored totals are never trusted; a stale total from an earlier edit of
// either field is silently corrected.
func RecomputeItems(items []Item) {
	for i := range items {
		items[i].Total = float64(items[i].Quantity) * items[i].UnitPrice
	}
}

// Totals recomputes item totals and groups them into per-currency subtotals.
// Currency resolution is a substring match against the catalog, so a
// manually edited description can land in the wrong bucket.
func Totals(ctx context.Context, resolver CurrencyResolver, items []Item) []Subtotal {
	RecomputeItems(items)

	buckets := make(map[string]float64)
	for i := range items {
		cur := resolver.CurrencyFor(ctx, items[i].Description)
		items[i].Currency = cur
		buckets[cur] += items[i].Total
	}

	out := make([]Subtotal, 0, len(buckets))
	for cur, amount := range buckets {
		out = append(out, Subtotal{Currency: cur, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
