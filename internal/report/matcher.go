package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aquabiolab/biolog-calendar/internal/crm"
)

// ServiceSpec configures which catalog offers count as the target service.
// Identifiers compare case-insensitively; UseSKU selects whether line items
// match on the offer's SKU (xmlId) or on its internal id.
type ServiceSpec struct {
	Identifiers []string
	UseSKU      bool
}

// BiologistVisit is the production spec: the ten offer SKUs sold as the
// "biologist visit" service.
var BiologistVisit = ServiceSpec{
	Identifiers: []string{
		"28063", "acfvbkQRh1vbMh95fh9lo0", "k-RDynuFhLNdo8rsWOqGo2",
		"26483", "2tZjx-wpg65Ie5vRryvdt0", "YXJrVu5tja9fE-BBl2V-j0",
		"26481", "suODkHGjgaMvqLkJGUR4F2", "IpYqw1O8jVX21Fa2Ie30O2",
		"kyp58frLhC9GqlEh2e4RR1",
	},
	UseSKU: true,
}

// MatchResult reports whether an order contains the target service and the
// summed price of exactly the matching line items.
type MatchResult struct {
	Matched        bool
	AggregatePrice decimal.Decimal
}

// Match checks an order against the service spec. Pure function: no side
// effects, the order is never mutated.
func Match(order crm.Order, spec ServiceSpec) MatchResult {
	identifiers := make(map[string]struct{}, len(spec.Identifiers))
	for _, id := range spec.Identifiers {
		identifiers[strings.ToLower(id)] = struct{}{}
	}

	result := MatchResult{AggregatePrice: decimal.Zero}
	for _, item := range order.Items {
		key := item.Offer.ID.String()
		if spec.UseSKU {
			key = item.Offer.XMLID
		}
		if _, ok := identifiers[strings.ToLower(key)]; !ok {
			continue
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		result.Matched = true
		result.AggregatePrice = result.AggregatePrice.Add(
			item.InitialPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
	}
	return result
}
