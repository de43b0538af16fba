package jobs

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotalsWithFivePercentTax(t *testing.T) {
	items := []models.EstimateItem{
		{ItemType: enums.EstimateItemTypeLabour, TotalPrice: dec("150.00")},
		{ItemType: enums.EstimateItemTypeLabour, TotalPrice: dec("150.00")},
		{ItemType: enums.EstimateItemTypePart, TotalPrice: dec("200.00")},
	}

	totals := ComputeTotals(items, decimal.Zero, dec("5"), decimal.Zero, decimal.Zero)

	if !totals.LabourTotal.Equal(dec("300.00")) {
		t.Fatalf("labour total = %s, want 300.00", totals.LabourTotal)
	}
	if !totals.PartsTotal.Equal(dec("200.00")) {
		t.Fatalf("parts total = %s, want 200.00", totals.PartsTotal)
	}
	if !totals.TaxAmount.Equal(dec("25.00")) {
		t.Fatalf("tax = %s, want 25.00", totals.TaxAmount)
	}
	if !totals.EstimateTotal.Equal(dec("525.00")) {
		t.Fatalf("estimate total = %s, want 525.00", totals.EstimateTotal)
	}
	if !totals.GrandTotal.Equal(dec("525.00")) {
		t.Fatalf("grand total = %s, want 525.00", totals.GrandTotal)
	}
	if !totals.BalanceDue.Equal(dec("525.00")) {
		t.Fatalf("balance due = %s, want 525.00", totals.BalanceDue)
	}
}

func TestComputeTotalsDiscountAndFee(t *testing.T) {
	items := []models.EstimateItem{
		{ItemType: enums.EstimateItemTypeLabour, TotalPrice: dec("500.00")},
		{ItemType: enums.EstimateItemTypePart, TotalPrice: dec("300.00")},
	}

	totals := ComputeTotals(items, dec("50.00"), dec("5"), dec("42.50"), dec("100.00"))

	// (500 + 300 + 50) * 5% = 42.50 tax
	if !totals.TaxAmount.Equal(dec("42.50")) {
		t.Fatalf("tax = %s, want 42.50", totals.TaxAmount)
	}
	if !totals.EstimateTotal.Equal(dec("892.50")) {
		t.Fatalf("estimate total = %s, want 892.50", totals.EstimateTotal)
	}
	if !totals.GrandTotal.Equal(dec("850.00")) {
		t.Fatalf("grand total = %s, want 850.00", totals.GrandTotal)
	}
	if !totals.BalanceDue.Equal(dec("750.00")) {
		t.Fatalf("balance due = %s, want 750.00", totals.BalanceDue)
	}
}

func TestComputeTotalsFeeLineItemsMergeWithDeliveryFee(t *testing.T) {
	items := []models.EstimateItem{
		{ItemType: enums.EstimateItemTypeFee, TotalPrice: dec("30.00")},
	}

	totals := ComputeTotals(items, dec("20.00"), dec("0"), decimal.Zero, decimal.Zero)
	if !totals.DeliveryFee.Equal(dec("50.00")) {
		t.Fatalf("delivery fee = %s, want 50.00", totals.DeliveryFee)
	}
	if !totals.GrandTotal.Equal(dec("50.00")) {
		t.Fatalf("grand total = %s, want 50.00", totals.GrandTotal)
	}
}

func TestVerifyLedgerDetectsDrift(t *testing.T) {
	job := &models.JobCard{
		JobNumber:     "JC202608290001",
		LabourTotal:   dec("300.00"),
		PartsTotal:    dec("200.00"),
		TaxAmount:     dec("25.00"),
		EstimateTotal: dec("525.00"),
		GrandTotal:    dec("525.00"),
		BalanceDue:    dec("525.00"),
	}
	if err := VerifyLedger(job); err != nil {
		t.Fatalf("balanced ledger rejected: %v", err)
	}

	job.GrandTotal = dec("500.00")
	err := VerifyLedger(job)
	if err == nil {
		t.Fatal("expected drift to be rejected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRecalculateBalance(t *testing.T) {
	job := &models.JobCard{
		LabourTotal:    dec("100.00"),
		PartsTotal:     dec("350.00"),
		TaxAmount:      dec("22.50"),
		DiscountAmount: dec("0"),
		AmountPaid:     dec("200.00"),
	}
	RecalculateBalance(job)

	if !job.EstimateTotal.Equal(dec("472.50")) {
		t.Fatalf("estimate total = %s, want 472.50", job.EstimateTotal)
	}
	if !job.BalanceDue.Equal(dec("272.50")) {
		t.Fatalf("balance due = %s, want 272.50", job.BalanceDue)
	}
}
