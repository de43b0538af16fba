package enums

import "fmt"

// JobStatus tracks the lifecycle of a job card from booking to closure.
type JobStatus string

const (
	JobStatusRequested                JobStatus = "requested"
	JobStatusScheduled                JobStatus = "scheduled"
	JobStatusVehiclePicked            JobStatus = "vehicle_picked"
	JobStatusInIntake                 JobStatus = "in_intake"
	JobStatusDiagnosed                JobStatus = "diagnosed"
	JobStatusAwaitingEstimateApproval JobStatus = "awaiting_estimate_approval"
	JobStatusEstimateApproved         JobStatus = "estimate_approved"
	JobStatusRFQSent                  JobStatus = "rfq_sent"
	JobStatusQuotesReceived           JobStatus = "quotes_received"
	JobStatusAwaitingPartsApproval    JobStatus = "awaiting_parts_approval"
	JobStatusPartsApproved            JobStatus = "parts_approved"
	JobStatusAwaitingPayment          JobStatus = "awaiting_payment"
	JobStatusPartiallyPaid            JobStatus = "partially_paid"
	JobStatusPaid                     JobStatus = "paid"
	JobStatusPartsOrdered             JobStatus = "parts_ordered"
	JobStatusPartsReceived            JobStatus = "parts_received"
	JobStatusInService                JobStatus = "in_service"
	JobStatusTesting                  JobStatus = "testing"
	JobStatusReady                    JobStatus = "ready"
	JobStatusOutForDelivery           JobStatus = "out_for_delivery"
	JobStatusDelivered                JobStatus = "delivered"
	JobStatusClosed                   JobStatus = "closed"
	JobStatusCancelled                JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusRequested,
	JobStatusScheduled,
	JobStatusVehiclePicked,
	JobStatusInIntake,
	JobStatusDiagnosed,
	JobStatusAwaitingEstimateApproval,
	JobStatusEstimateApproved,
	JobStatusRFQSent,
	JobStatusQuotesReceived,
	JobStatusAwaitingPartsApproval,
	JobStatusPartsApproved,
	JobStatusAwaitingPayment,
	JobStatusPartiallyPaid,
	JobStatusPaid,
	JobStatusPartsOrdered,
	JobStatusPartsReceived,
	JobStatusInService,
	JobStatusTesting,
	JobStatusReady,
	JobStatusOutForDelivery,
	JobStatusDelivered,
	JobStatusClosed,
	JobStatusCancelled,
}

// String implements fmt.Stringer.
func (j JobStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobStatus.
func (j JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (j JobStatus) IsTerminal() bool {
	return j == JobStatusClosed || j == JobStatusCancelled
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
