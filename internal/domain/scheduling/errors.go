package scheduling

import "github.com/prjwlhere/hospital-management-system/internal/platform/apperr"

var (
	ErrSlotNotFound        = apperr.NotFound("slot not found")
	ErrSlotUnavailable     = apperr.Conflict("slot is no longer available")
	ErrSlotInUse           = apperr.Conflict("slot is linked to an appointment")
	ErrAppointmentNotFound = apperr.NotFound("appointment not found")
	ErrStatusChanged       = apperr.Conflict("appointment status changed concurrently, reload and retry")
)

// Outcomes reported to the booking counter.
const (
	outcomeBooked   = "booked"
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)
