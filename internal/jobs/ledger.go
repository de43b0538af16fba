package jobs

import (
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

// Totals is the derived financial state of a job.
type Totals struct {
	LabourTotal   decimal.Decimal
	PartsTotal    decimal.Decimal
	DeliveryFee   decimal.Decimal
	TaxAmount     decimal.Decimal
	Discount      decimal.Decimal
	EstimateTotal decimal.Decimal
	GrandTotal    decimal.Decimal
	AmountPaid    decimal.Decimal
	BalanceDue    decimal.Decimal
}

// ComputeTotals derives the full ledger from estimate line items. Tax applies
// to the pre-discount subtotal: tax = (labour + parts + fee) * rate / 100.
func ComputeTotals(items []models.EstimateItem, deliveryFee, taxRatePercent, discount, amountPaid decimal.Decimal) Totals {
	labour := decimal.Zero
	parts := decimal.Zero
	for _, item := range items {
		switch item.ItemType {
		case enums.EstimateItemTypeLabour:
			labour = labour.Add(item.TotalPrice)
		case enums.EstimateItemTypePart:
			parts = parts.Add(item.TotalPrice)
		case enums.EstimateItemTypeFee:
			deliveryFee = deliveryFee.Add(item.TotalPrice)
		}
	}

	subtotal := labour.Add(parts).Add(deliveryFee)
	tax := subtotal.Mul(taxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	estimateTotal := subtotal.Add(tax)
	grandTotal := estimateTotal.Sub(discount)
	balanceDue := grandTotal.Sub(amountPaid)

	return Totals{
		LabourTotal:   labour,
		PartsTotal:    parts,
		DeliveryFee:   deliveryFee,
		TaxAmount:     tax,
		Discount:      discount,
		EstimateTotal: estimateTotal,
		GrandTotal:    grandTotal,
		AmountPaid:    amountPaid,
		BalanceDue:    balanceDue,
	}
}

// ApplyTotals writes the derived ledger back onto the job.
func ApplyTotals(job *models.JobCard, totals Totals) {
	job.LabourTotal = totals.LabourTotal
	job.PartsTotal = totals.PartsTotal
	job.PickupDeliveryFee = totals.DeliveryFee
	job.TaxAmount = totals.TaxAmount
	job.DiscountAmount = totals.Discount
	job.EstimateTotal = totals.EstimateTotal
	job.GrandTotal = totals.GrandTotal
	job.AmountPaid = totals.AmountPaid
	job.BalanceDue = totals.BalanceDue
}

// RecalculateBalance refreshes grand_total and balance_due from the stored
// component totals, used after payments or quote selection mutate a single
// component without rebuilding the whole estimate.
func RecalculateBalance(job *models.JobCard) {
	subtotal := job.LabourTotal.Add(job.PartsTotal).Add(job.PickupDeliveryFee)
	job.EstimateTotal = subtotal.Add(job.TaxAmount)
	job.GrandTotal = job.EstimateTotal.Sub(job.DiscountAmount)
	job.BalanceDue = job.GrandTotal.Sub(job.AmountPaid)
}

// VerifyLedger rejects jobs whose stored totals have drifted from the derived
// values. A failure here is a bug in a mutation path, never user input.
func VerifyLedger(job *models.JobCard) error {
	subtotal := job.LabourTotal.Add(job.PartsTotal).Add(job.PickupDeliveryFee)
	estimate := subtotal.Add(job.TaxAmount)
	grand := estimate.Sub(job.DiscountAmount)
	balance := grand.Sub(job.AmountPaid)

	if !job.EstimateTotal.Equal(estimate) || !job.GrandTotal.Equal(grand) || !job.BalanceDue.Equal(balance) {
		return pkgerrors.New(pkgerrors.CodeInternal, "job ledger out of balance").
			WithDetails(map[string]string{
				"job_number":      job.JobNumber,
				"stored_grand":    job.GrandTotal.String(),
				"derived_grand":   grand.String(),
				"stored_balance":  job.BalanceDue.String(),
				"derived_balance": balance.String(),
			})
	}
	return nil
}
