package scheduling

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusBooked:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// ParseStatus accepts the lowercase wire form only.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := transitions[st]
	return st, ok
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar day. It travels as YYYY-MM-DD.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseTimeSlot validates an "HH:MM-HH:MM" label whose end is after its
// start and returns it in canonical zero-padded form.
func ParseTimeSlot(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("time_slot is required")
	}
	parts := strings.Split(label, "-")
	if len(parts) != 2 {
		return "", fmt.Errorf("time_slot must look like HH:MM-HH:MM")
	}
	start, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("time_slot must look like HH:MM-HH:MM")
	}
	end, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("time_slot must look like HH:MM-HH:MM")
	}
	if !end.After(start) {
		return "", fmt.Errorf("time_slot must end after it starts")
	}
	return start.Format("15:04") + "-" + end.Format("15:04"), nil
}

// Slot maps to the doctor_availability table.
type Slot struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      Date      `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment maps to the appointments table. AvailabilityID is nil once
// the appointment is cancelled or its slot is deleted.
type Appointment struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       uuid.UUID  `json:"doctor_id"`
	AvailabilityID *uuid.UUID `json:"availability_id,omitempty"`
	Date           Date       `json:"date"`
	TimeSlot       string     `json:"time_slot"`
	Status         Status     `json:"status"`
	Reason         *string    `json:"reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HistoryEntry is one row of appointment_status_history. OldStatus is nil for
// the row written when the appointment is booked.
type HistoryEntry struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	OldStatus     *Status    `json:"old_status"`
	NewStatus     Status     `json:"new_status"`
	ChangedBy     *uuid.UUID `json:"changed_by_user_id,omitempty"`
	Note          *string    `json:"note,omitempty"`
	ChangedAt     time.Time  `json:"changed_at"`
}

// Replay walks a history chain in order and returns the status it ends in.
// It fails when the chain does not start with a creation row or a row's old
// status differs from its predecessor's new status.
func Replay(entries []*HistoryEntry) (Status, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("empty history")
	}
	if entries[0].OldStatus != nil {
		return "", fmt.Errorf("history does not start at creation")
	}
	current := entries[0].NewStatus
	for i, e := range entries[1:] {
		if e.OldStatus == nil || *e.OldStatus != current {
			return "", fmt.Errorf("history row %d does not follow %q", i+1, current)
		}
		if !CanTransition(current, e.NewStatus) {
			return "", fmt.Errorf("history row %d: %q -> %q is not a valid transition", i+1, current, e.NewStatus)
		}
		current = e.NewStatus
	}
	return current, nil
}

// Filter narrows appointment listings. Nil fields are not applied.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
}

// SlotQuery narrows slot listings.
type SlotQuery struct {
	DoctorID      uuid.UUID
	From          *Date
	To            *Date
	OnlyAvailable bool
}

type SlotInput struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

type BookingInput struct {
	AvailabilityID string  `json:"availability_id"`
	Reason         *string `json:"reason"`
}

type TransitionInput struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}
