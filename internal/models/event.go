package models

import "time"

// Booking change kinds, shared by notifications and the event bus.
const (
	ChangeCreated     = "agendamento.criado"
	ChangeRescheduled = "agendamento.reagendado"
	ChangeCancelled   = "agendamento.cancelado"
	ChangeConfirmed   = "agendamento.confirmado"
	ChangeAttendance  = "agendamento.presenca"
	ChangeSchedule    = "agenda.alterada"
)

// BookingChange is broadcast after a committed mutation so peers can drop cached days.
type BookingChange struct {
	Kind       string    `json:"kind"`
	BookingID  string    `json:"booking_id,omitempty"`
	Days       []string  `json:"days,omitempty"`
	All        bool      `json:"all,omitempty"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NotificationReminder is the kind of the day-before reminder.
const NotificationReminder = "agendamento.lembrete"

// BookingNotification is the payload handed to the notification dispatcher.
type BookingNotification struct {
	Kind            string     `json:"kind"`
	BookingID       string     `json:"booking_id"`
	PatientID       string     `json:"patient_id"`
	ServiceID       string     `json:"service_id"`
	StartAt         time.Time  `json:"start_at"`
	PreviousStartAt *time.Time `json:"previous_start_at,omitempty"`
	Reason          string     `json:"reason,omitempty"`
}
