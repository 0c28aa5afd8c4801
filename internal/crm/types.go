package crm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a RetailCRM order as returned by the v5 order-search endpoint.
// Only the fields the report needs are mapped; the rest of the payload is
// ignored on decode.
type Order struct {
	ID             int            `json:"id"`
	ExternalID     string         `json:"externalId"`
	CreatedAt      string         `json:"createdAt"`
	FirstName      string         `json:"firstName"`
	Phone          string         `json:"phone"`
	ManagerID      int            `json:"managerId"`
	ManagerComment string         `json:"managerComment"`
	Manager        Manager        `json:"manager"`
	Items          []LineItem     `json:"items"`
	CustomFields   map[string]any `json:"customFields"`
}

// Manager is the order's responsible manager reference.
type Manager struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LineItem is one order position referencing a catalog offer.
type LineItem struct {
	Offer        Offer `json:"offer"`
	InitialPrice Price `json:"initialPrice"`
	Quantity     int   `json:"quantity"`
}

// Offer is the catalog entry behind a line item. ID is kept as json.Number
// so an absent id compares as the empty string, the same way an absent SKU
// does.
type Offer struct {
	ID    json.Number `json:"id"`
	XMLID string      `json:"xmlId"`
}

// Price is a decimal that tolerates absent or non-numeric JSON values by
// decoding to zero. A garbage price must not fail the whole order decode.
type Price struct {
	decimal.Decimal
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		p.Decimal = decimal.Zero
		return nil
	}
	p.Decimal = d
	return nil
}

// CustomFieldString returns the named custom field when it is present and
// holds a string. Absence and a wrong-typed value both report ok=false.
func (o Order) CustomFieldString(key string) (string, bool) {
	v, present := o.CustomFields[key]
	if !present {
		return "", false
	}
	s, isString := v.(string)
	if !isString {
		return "", false
	}
	return s, true
}

// createdAtLayouts are the timestamp shapes RetailCRM is known to emit.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CreatedTime parses the order creation timestamp.
func (o Order) CreatedTime() (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, o.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ManagerDisplay resolves the manager name for the report: the non-empty
// parts of first/last name joined by a space, falling back to the numeric
// manager id when no name is known.
func (o Order) ManagerDisplay() string {
	var parts []string
	if o.Manager.FirstName != "" {
		parts = append(parts, o.Manager.FirstName)
	}
	if o.Manager.LastName != "" {
		parts = append(parts, o.Manager.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if o.ManagerID == 0 {
		return "ID: N/A"
	}
	return fmt.Sprintf("ID: %d", o.ManagerID)
}
