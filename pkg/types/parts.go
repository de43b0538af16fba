package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PartRequest is a single part requested on an RFQ, stored as JSONB.
type PartRequest struct {
	PartNumber  string `json:"part_number,omitempty"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes,omitempty"`
}

// PartRequests is the rfqs.parts_list JSONB column.
type PartRequests []PartRequest

// Value serializes the part list to JSON.
func (p PartRequests) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan decodes JSONB into the part list.
func (p *PartRequests) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded PartRequests
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*p = decoded
	return nil
}

// QuoteLineItem prices one requested part within a vendor quote.
type QuoteLineItem struct {
	PartNumber     string          `json:"part_number,omitempty"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	WarrantyMonths int             `json:"warranty_months"`
	Availability   string          `json:"availability"`
	Notes          string          `json:"notes,omitempty"`
}

// QuoteLineItems is the vendor_quotes.line_items JSONB column.
type QuoteLineItems []QuoteLineItem

// Value serializes the line items to JSON.
func (q QuoteLineItems) Value() (driver.Value, error) {
	if q == nil {
		return nil, nil
	}
	return json.Marshal(q)
}

// Scan decodes JSONB into the line items.
func (q *QuoteLineItems) Scan(value interface{}) error {
	if value == nil {
		*q = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded QuoteLineItems
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*q = decoded
	return nil
}
