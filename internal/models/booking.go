package models

import "time"

// BookingStatus is the lifecycle state of an appointment.
type BookingStatus string

const (
	BookingAgendado   BookingStatus = "agendado"
	BookingConfirmado BookingStatus = "confirmado"
	BookingCancelado  BookingStatus = "cancelado"
	BookingRealizado  BookingStatus = "realizado"
	BookingFaltou     BookingStatus = "faltou"
	// BookingReagendado marks rows moved by older clients; it no longer occupies time.
	BookingReagendado BookingStatus = "reagendado"
)

// BlockingStatuses lists the statuses that occupy their interval.
var BlockingStatuses = []BookingStatus{BookingAgendado, BookingConfirmado, BookingRealizado, BookingFaltou}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingAgendado, BookingConfirmado, BookingCancelado, BookingRealizado, BookingFaltou, BookingReagendado:
		return true
	}
	return false
}

// BlocksSlot reports whether a booking in this status makes its interval unavailable.
func (s BookingStatus) BlocksSlot() bool {
	switch s {
	case BookingAgendado, BookingConfirmado, BookingRealizado, BookingFaltou:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCancelado, BookingRealizado, BookingFaltou, BookingReagendado:
		return true
	}
	return false
}

// Open reports whether the booking can still be moved, confirmed or cancelled.
func (s BookingStatus) Open() bool {
	return s == BookingAgendado || s == BookingConfirmado
}

// Booking is an appointment row. Rows are never deleted.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	PatientID    string        `db:"patient_id" json:"paciente_id"`
	ServiceID    string        `db:"service_id" json:"servico_id"`
	StartAt      time.Time     `db:"start_at" json:"inicio"`
	EndAt        time.Time     `db:"end_at" json:"fim"`
	Status       BookingStatus `db:"status" json:"status"`
	CancelReason *string       `db:"cancel_reason" json:"motivo_cancelamento,omitempty"`
	Notes        string        `db:"notes" json:"observacoes"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Interval returns the occupied half-open range.
func (b Booking) Interval() TimeRange {
	return TimeRange{Start: b.StartAt, End: b.EndAt}
}

// BookingDetail joins a booking with the names shown on agenda listings and exports.
type BookingDetail struct {
	Booking
	PatientName  string `db:"patient_name" json:"paciente_nome"`
	PatientEmail string `db:"patient_email" json:"paciente_email"`
	PatientPhone string `db:"patient_phone" json:"paciente_telefone,omitempty"`
	ServiceName  string `db:"service_name" json:"servico_nome"`
}

// BookingFilter describes query params for listing bookings.
type BookingFilter struct {
	From      *time.Time
	To        *time.Time
	PatientID string
	Statuses  []BookingStatus
	Page      int
	PageSize  int
	SortOrder string
}
