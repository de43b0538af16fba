package rfq

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// CandidateQuote pairs a submitted quote with its vendor's rating for the
// best_rated policy.
type CandidateQuote struct {
	Quote        models.VendorQuote
	VendorRating decimal.Decimal
}

// PickWinner applies the selection policy to submitted quotes whose delivery
// window fits maxDeliveryDays. Ties break on the declared secondary key, then
// on earliest submission, never on slice order. Returns nil when no quote
// qualifies.
func PickWinner(policy enums.SelectionPolicy, candidates []CandidateQuote, maxDeliveryDays int) *models.VendorQuote {
	eligible := make([]CandidateQuote, 0, len(candidates))
	for _, c := range candidates {
		if c.Quote.Status != enums.QuoteStatusSubmitted {
			continue
		}
		if c.Quote.DeliveryDays == nil || *c.Quote.DeliveryDays > maxDeliveryDays {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		switch policy {
		case enums.SelectionPolicyFastest:
			if *a.Quote.DeliveryDays != *b.Quote.DeliveryDays {
				return *a.Quote.DeliveryDays < *b.Quote.DeliveryDays
			}
			if !a.Quote.TotalAmount.Equal(b.Quote.TotalAmount) {
				return a.Quote.TotalAmount.LessThan(b.Quote.TotalAmount)
			}
		case enums.SelectionPolicyBestRated:
			if !a.VendorRating.Equal(b.VendorRating) {
				return a.VendorRating.GreaterThan(b.VendorRating)
			}
			if !a.Quote.TotalAmount.Equal(b.Quote.TotalAmount) {
				return a.Quote.TotalAmount.LessThan(b.Quote.TotalAmount)
			}
		default: // cheapest_available
			if !a.Quote.TotalAmount.Equal(b.Quote.TotalAmount) {
				return a.Quote.TotalAmount.LessThan(b.Quote.TotalAmount)
			}
			if *a.Quote.DeliveryDays != *b.Quote.DeliveryDays {
				return *a.Quote.DeliveryDays < *b.Quote.DeliveryDays
			}
		}
		return earlierSubmission(a.Quote, b.Quote)
	})

	winner := eligible[0].Quote
	return &winner
}

func earlierSubmission(a, b models.VendorQuote) bool {
	switch {
	case a.SubmittedAt == nil:
		return false
	case b.SubmittedAt == nil:
		return true
	case !a.SubmittedAt.Equal(*b.SubmittedAt):
		return a.SubmittedAt.Before(*b.SubmittedAt)
	}
	// Stable final ordering for identical timestamps.
	return lessUUID(a.ID, b.ID)
}

func lessUUID(a, b uuid.UUID) bool {
	return a.String() < b.String()
}
