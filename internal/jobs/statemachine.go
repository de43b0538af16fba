package jobs

import (
	"time"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

// allowedTransitions is the static adjacency table for the job lifecycle.
// Terminal states (closed, cancelled) have no outgoing edges. The only
// back-edges are the rework paths testing -> in_service and the
// partially-paid re-entries. Both approval gates carry an edge straight to
// awaiting_payment: a labour-only estimate skips the parts flow entirely,
// and an approved parts quote goes directly to billing.
var allowedTransitions = map[enums.JobStatus][]enums.JobStatus{
	enums.JobStatusRequested:                {enums.JobStatusScheduled, enums.JobStatusCancelled},
	enums.JobStatusScheduled:                {enums.JobStatusVehiclePicked, enums.JobStatusInIntake, enums.JobStatusCancelled},
	enums.JobStatusVehiclePicked:            {enums.JobStatusInIntake, enums.JobStatusCancelled},
	enums.JobStatusInIntake:                 {enums.JobStatusDiagnosed, enums.JobStatusCancelled},
	enums.JobStatusDiagnosed:                {enums.JobStatusAwaitingEstimateApproval, enums.JobStatusCancelled},
	enums.JobStatusAwaitingEstimateApproval: {enums.JobStatusEstimateApproved, enums.JobStatusAwaitingPayment, enums.JobStatusCancelled},
	enums.JobStatusEstimateApproved:         {enums.JobStatusRFQSent, enums.JobStatusAwaitingPayment, enums.JobStatusInService},
	enums.JobStatusRFQSent:                  {enums.JobStatusQuotesReceived, enums.JobStatusCancelled},
	enums.JobStatusQuotesReceived:           {enums.JobStatusAwaitingPartsApproval},
	enums.JobStatusAwaitingPartsApproval:    {enums.JobStatusPartsApproved, enums.JobStatusAwaitingPayment, enums.JobStatusCancelled},
	enums.JobStatusPartsApproved:            {enums.JobStatusAwaitingPayment},
	enums.JobStatusAwaitingPayment:          {enums.JobStatusPartiallyPaid, enums.JobStatusPaid, enums.JobStatusCancelled},
	enums.JobStatusPartiallyPaid:            {enums.JobStatusPaid, enums.JobStatusPartsOrdered, enums.JobStatusInService},
	enums.JobStatusPaid:                     {enums.JobStatusPartsOrdered, enums.JobStatusInService},
	enums.JobStatusPartsOrdered:             {enums.JobStatusPartsReceived},
	enums.JobStatusPartsReceived:            {enums.JobStatusInService},
	enums.JobStatusInService:                {enums.JobStatusTesting},
	enums.JobStatusTesting:                  {enums.JobStatusReady, enums.JobStatusInService},
	enums.JobStatusReady:                    {enums.JobStatusOutForDelivery, enums.JobStatusDelivered},
	enums.JobStatusOutForDelivery:           {enums.JobStatusDelivered},
	enums.JobStatusDelivered:                {enums.JobStatusClosed},
	enums.JobStatusClosed:                   {},
	enums.JobStatusCancelled:                {},
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func CanTransition(from, to enums.JobStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidTransitions lists the statuses reachable in one step from the given one.
func ValidTransitions(from enums.JobStatus) []enums.JobStatus {
	next := allowedTransitions[from]
	out := make([]enums.JobStatus, len(next))
	copy(out, next)
	return out
}

// ApplyTransition validates the edge, mutates the job's status and stamps the
// timestamp the target status implies. Callers persist the job inside the
// same transaction that read it.
func ApplyTransition(job *models.JobCard, to enums.JobStatus, now time.Time) error {
	if !CanTransition(job.Status, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]string{
				"from": job.Status.String(),
				"to":   to.String(),
			})
	}

	job.Status = to
	switch to {
	case enums.JobStatusVehiclePicked:
		job.ActualPickupTime = &now
	case enums.JobStatusDelivered:
		job.ActualDeliveryTime = &now
	case enums.JobStatusClosed:
		job.ActualCompletionDate = &now
	}
	return nil
}
