package jobs

import (
	"testing"
	"time"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

func TestCanTransitionCoversLifecyclePath(t *testing.T) {
	path := []enums.JobStatus{
		enums.JobStatusRequested,
		enums.JobStatusScheduled,
		enums.JobStatusVehiclePicked,
		enums.JobStatusInIntake,
		enums.JobStatusDiagnosed,
		enums.JobStatusAwaitingEstimateApproval,
		enums.JobStatusEstimateApproved,
		enums.JobStatusRFQSent,
		enums.JobStatusQuotesReceived,
		enums.JobStatusAwaitingPartsApproval,
		enums.JobStatusPartsApproved,
		enums.JobStatusAwaitingPayment,
		enums.JobStatusPartiallyPaid,
		enums.JobStatusPaid,
		enums.JobStatusPartsOrdered,
		enums.JobStatusPartsReceived,
		enums.JobStatusInService,
		enums.JobStatusTesting,
		enums.JobStatusReady,
		enums.JobStatusOutForDelivery,
		enums.JobStatusDelivered,
		enums.JobStatusClosed,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionReworkEdges(t *testing.T) {
	if !CanTransition(enums.JobStatusTesting, enums.JobStatusInService) {
		t.Fatal("testing -> in_service rework edge missing")
	}
	if !CanTransition(enums.JobStatusPartiallyPaid, enums.JobStatusInService) {
		t.Fatal("partially_paid -> in_service edge missing")
	}
	if !CanTransition(enums.JobStatusEstimateApproved, enums.JobStatusAwaitingPayment) {
		t.Fatal("estimate_approved -> awaiting_payment (no parts) edge missing")
	}
}

func TestApprovalGatesReachPaymentDirectly(t *testing.T) {
	if !CanTransition(enums.JobStatusAwaitingEstimateApproval, enums.JobStatusAwaitingPayment) {
		t.Fatal("awaiting_estimate_approval -> awaiting_payment edge missing for labour-only jobs")
	}
	if !CanTransition(enums.JobStatusAwaitingPartsApproval, enums.JobStatusAwaitingPayment) {
		t.Fatal("awaiting_parts_approval -> awaiting_payment edge missing")
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []enums.JobStatus{enums.JobStatusClosed, enums.JobStatusCancelled} {
		if got := ValidTransitions(terminal); len(got) != 0 {
			t.Fatalf("%s should be terminal, got transitions %v", terminal, got)
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	cases := [][2]enums.JobStatus{
		{enums.JobStatusRequested, enums.JobStatusDelivered},
		{enums.JobStatusQuotesReceived, enums.JobStatusCancelled},
		{enums.JobStatusPaid, enums.JobStatusCancelled},
		{enums.JobStatusDelivered, enums.JobStatusInService},
		{enums.JobStatusClosed, enums.JobStatusRequested},
	}
	for _, c := range cases {
		if CanTransition(c[0], c[1]) {
			t.Fatalf("unexpected edge %s -> %s", c[0], c[1])
		}
	}
}

func TestApplyTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	job := &models.JobCard{Status: enums.JobStatusScheduled}
	if err := ApplyTransition(job, enums.JobStatusVehiclePicked, now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if job.ActualPickupTime == nil || !job.ActualPickupTime.Equal(now) {
		t.Fatal("pickup time not stamped")
	}

	job = &models.JobCard{Status: enums.JobStatusOutForDelivery}
	if err := ApplyTransition(job, enums.JobStatusDelivered, now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if job.ActualDeliveryTime == nil {
		t.Fatal("delivery time not stamped")
	}

	job = &models.JobCard{Status: enums.JobStatusDelivered}
	if err := ApplyTransition(job, enums.JobStatusClosed, now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if job.ActualCompletionDate == nil {
		t.Fatal("completion date not stamped")
	}
}

func TestApplyTransitionRejectionLeavesJobUntouched(t *testing.T) {
	job := &models.JobCard{Status: enums.JobStatusRequested}
	err := ApplyTransition(job, enums.JobStatusInService, time.Now())
	if err == nil {
		t.Fatal("expected rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if job.Status != enums.JobStatusRequested {
		t.Fatalf("status mutated to %s on rejected transition", job.Status)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["from"] != "requested" || details["to"] != "in_service" {
		t.Fatalf("expected from/to details, got %v", typed.Details())
	}
}
