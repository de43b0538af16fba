package rfq

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

func candidate(total string, deliveryDays int, rating string, submittedAt time.Time) CandidateQuote {
	days := deliveryDays
	return CandidateQuote{
		Quote: models.VendorQuote{
			ID:           uuid.New(),
			VendorID:     uuid.New(),
			Status:       enums.QuoteStatusSubmitted,
			TotalAmount:  decimal.RequireFromString(total),
			DeliveryDays: &days,
			SubmittedAt:  &submittedAt,
		},
		VendorRating: decimal.RequireFromString(rating),
	}
}

func TestPickWinnerCheapestPrefersLowerTotal(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	fast := candidate("400.00", 3, "4.5", base)
	cheap := candidate("350.00", 5, "3.0", base.Add(time.Minute))

	winner := PickWinner(enums.SelectionPolicyCheapestAvailable, []CandidateQuote{fast, cheap}, 7)
	if winner == nil {
		t.Fatal("expected a winner")
	}
	if winner.ID != cheap.Quote.ID {
		t.Fatalf("winner total = %s, want 350.00", winner.TotalAmount)
	}
}

func TestPickWinnerFastestPrefersShorterDelivery(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	fast := candidate("400.00", 3, "4.5", base)
	cheap := candidate("350.00", 5, "3.0", base)

	winner := PickWinner(enums.SelectionPolicyFastest, []CandidateQuote{cheap, fast}, 7)
	if winner == nil || winner.ID != fast.Quote.ID {
		t.Fatal("expected the 3-day quote to win under fastest policy")
	}
}

func TestPickWinnerBestRatedPrefersHigherRating(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	rated := candidate("500.00", 6, "4.9", base)
	cheap := candidate("350.00", 5, "3.0", base)

	winner := PickWinner(enums.SelectionPolicyBestRated, []CandidateQuote{cheap, rated}, 7)
	if winner == nil || winner.ID != rated.Quote.ID {
		t.Fatal("expected the 4.9-rated quote to win under best_rated policy")
	}
}

func TestPickWinnerSkipsQuotesOverDeliveryLimit(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	slow := candidate("100.00", 10, "5.0", base)
	ok := candidate("400.00", 6, "3.0", base)

	winner := PickWinner(enums.SelectionPolicyCheapestAvailable, []CandidateQuote{slow, ok}, 7)
	if winner == nil || winner.ID != ok.Quote.ID {
		t.Fatal("expected the 10-day quote to be filtered out")
	}
}

func TestPickWinnerIgnoresUnsubmittedQuotes(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	pending := candidate("10.00", 1, "5.0", base)
	pending.Quote.Status = enums.QuoteStatusPending
	submitted := candidate("400.00", 5, "3.0", base)

	winner := PickWinner(enums.SelectionPolicyCheapestAvailable, []CandidateQuote{pending, submitted}, 7)
	if winner == nil || winner.ID != submitted.Quote.ID {
		t.Fatal("pending quote must never win")
	}
}

func TestPickWinnerReturnsNilWhenNothingQualifies(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	slow := candidate("100.00", 30, "5.0", base)

	if winner := PickWinner(enums.SelectionPolicyCheapestAvailable, []CandidateQuote{slow}, 7); winner != nil {
		t.Fatalf("expected nil winner, got %s", winner.TotalAmount)
	}
}

func TestPickWinnerTieBreaksOnEarlierSubmission(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	late := candidate("350.00", 5, "3.0", base.Add(time.Hour))
	early := candidate("350.00", 5, "3.0", base)

	for i := 0; i < 5; i++ {
		winner := PickWinner(enums.SelectionPolicyCheapestAvailable, []CandidateQuote{late, early}, 7)
		if winner == nil || winner.ID != early.Quote.ID {
			t.Fatal("tie must break on earliest submission, deterministically")
		}
	}
}
