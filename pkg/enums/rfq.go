package enums

import "fmt"

// RFQStatus tracks a request-for-quotation through its vendor round trip.
type RFQStatus string

const (
	RFQStatusDraft          RFQStatus = "draft"
	RFQStatusPending        RFQStatus = "pending"
	RFQStatusSent           RFQStatus = "sent"
	RFQStatusQuotesReceived RFQStatus = "quotes_received"
	RFQStatusQuoteSelected  RFQStatus = "quote_selected"
	RFQStatusOrdered        RFQStatus = "ordered"
	RFQStatusCancelled      RFQStatus = "cancelled"
)

var validRFQStatuses = []RFQStatus{
	RFQStatusDraft,
	RFQStatusPending,
	RFQStatusSent,
	RFQStatusQuotesReceived,
	RFQStatusQuoteSelected,
	RFQStatusOrdered,
	RFQStatusCancelled,
}

// String implements fmt.Stringer.
func (r RFQStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RFQStatus.
func (r RFQStatus) IsValid() bool {
	for _, candidate := range validRFQStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRFQStatus converts raw input into an RFQStatus.
func ParseRFQStatus(value string) (RFQStatus, error) {
	for _, candidate := range validRFQStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rfq status %q", value)
}

// QuoteStatus tracks a single vendor's quote within an RFQ.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusSubmitted QuoteStatus = "submitted"
	QuoteStatusSelected  QuoteStatus = "selected"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusExpired   QuoteStatus = "expired"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusPending,
	QuoteStatusSubmitted,
	QuoteStatusSelected,
	QuoteStatusRejected,
	QuoteStatusExpired,
}

// String implements fmt.Stringer.
func (q QuoteStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteStatus.
func (q QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}

// SelectionPolicy names the rule used to auto-select a winning quote.
type SelectionPolicy string

const (
	SelectionPolicyCheapestAvailable SelectionPolicy = "cheapest_available"
	SelectionPolicyFastest           SelectionPolicy = "fastest"
	SelectionPolicyBestRated         SelectionPolicy = "best_rated"
)

var validSelectionPolicies = []SelectionPolicy{
	SelectionPolicyCheapestAvailable,
	SelectionPolicyFastest,
	SelectionPolicyBestRated,
}

// String implements fmt.Stringer.
func (s SelectionPolicy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SelectionPolicy.
func (s SelectionPolicy) IsValid() bool {
	for _, candidate := range validSelectionPolicies {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSelectionPolicy converts raw input into a SelectionPolicy.
func ParseSelectionPolicy(value string) (SelectionPolicy, error) {
	for _, candidate := range validSelectionPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid selection policy %q", value)
}
