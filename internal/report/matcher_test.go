package report

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquabiolab/biolog-calendar/internal/crm"
)

func item(sku string, id string, price float64, qty int) crm.LineItem {
	return crm.LineItem{
		Offer:        crm.Offer{ID: json.Number(id), XMLID: sku},
		InitialPrice: crm.Price{Decimal: decimal.NewFromFloat(price)},
		Quantity:     qty,
	}
}

func TestMatch_NoMatchingItems(t *testing.T) {
	order := crm.Order{Items: []crm.LineItem{
		item("99999", "1", 500, 1),
		item("88888", "2", 700, 3),
	}}
	res := Match(order, BiologistVisit)
	assert.False(t, res.Matched)
	assert.True(t, res.AggregatePrice.IsZero(), "price = %s", res.AggregatePrice)
}

func TestMatch_SumsOnlyMatchingItems(t *testing.T) {
	order := crm.Order{Items: []crm.LineItem{
		item("28063", "1", 3500.50, 2), // matches: 7001.00
		item("99999", "2", 999.99, 5),  // ignored
		item("26481", "3", 1200, 1),    // matches: 1200.00
	}}
	res := Match(order, BiologistVisit)
	require.True(t, res.Matched)
	assert.Equal(t, "8201", res.AggregatePrice.String())
}

func TestMatch_OrderOfItemsDoesNotAffectSum(t *testing.T) {
	forward := crm.Order{Items: []crm.LineItem{
		item("28063", "1", 0.1, 1),
		item("26483", "2", 0.2, 1),
		item("26481", "3", 0.3, 1),
	}}
	reversed := crm.Order{Items: []crm.LineItem{
		item("26481", "3", 0.3, 1),
		item("26483", "2", 0.2, 1),
		item("28063", "1", 0.1, 1),
	}}
	a := Match(forward, BiologistVisit)
	b := Match(reversed, BiologistVisit)
	// An exact decimal sum: 0.1+0.2+0.3 is 0.6, not 0.6000000000000001.
	assert.Equal(t, "0.6", a.AggregatePrice.String())
	assert.True(t, a.AggregatePrice.Equal(b.AggregatePrice))
}

func TestMatch_CaseInsensitive(t *testing.T) {
	spec := ServiceSpec{Identifiers: []string{"abc"}, UseSKU: true}
	order := crm.Order{Items: []crm.LineItem{item("ABC", "1", 100, 1)}}
	res := Match(order, spec)
	assert.True(t, res.Matched)
	assert.Equal(t, "100", res.AggregatePrice.String())

	upper := ServiceSpec{Identifiers: []string{"SuODkHGJGAMVQLKJGUR4F2"}, UseSKU: true}
	mixed := crm.Order{Items: []crm.LineItem{item("suODkHGjgaMvqLkJGUR4F2", "1", 50, 1)}}
	assert.True(t, Match(mixed, upper).Matched)
}

func TestMatch_QuantityDefaultsToOne(t *testing.T) {
	order := crm.Order{Items: []crm.LineItem{item("28063", "1", 2500, 0)}}
	res := Match(order, BiologistVisit)
	require.True(t, res.Matched)
	assert.Equal(t, "2500", res.AggregatePrice.String())
}

func TestMatch_InternalIDMode(t *testing.T) {
	spec := ServiceSpec{Identifiers: []string{"26481"}, UseSKU: false}

	byID := crm.Order{Items: []crm.LineItem{item("other-sku", "26481", 900, 1)}}
	assert.True(t, Match(byID, spec).Matched)

	// In id mode the SKU must not be consulted.
	bySKU := crm.Order{Items: []crm.LineItem{item("26481", "777", 900, 1)}}
	assert.False(t, Match(bySKU, spec).Matched)
}

func TestMatch_AbsentOfferIdentifiers(t *testing.T) {
	order := crm.Order{Items: []crm.LineItem{{
		InitialPrice: crm.Price{Decimal: decimal.NewFromInt(100)},
		Quantity:     1,
	}}}
	res := Match(order, BiologistVisit)
	assert.False(t, res.Matched)
	assert.True(t, res.AggregatePrice.IsZero())
}

func TestMatch_ZeroPriceItemContributesNothing(t *testing.T) {
	order := crm.Order{Items: []crm.LineItem{
		item("28063", "1", 0, 4),
		item("26481", "2", 1500, 1),
	}}
	res := Match(order, BiologistVisit)
	require.True(t, res.Matched)
	assert.Equal(t, "1500", res.AggregatePrice.String())
}
