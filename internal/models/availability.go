package models

import "time"

// AvailabilityWindow is a recurring weekly open period of the clinic.
// DayOfWeek follows time.Weekday (0 = domingo).
type AvailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek int       `db:"day_of_week" json:"dia_semana"`
	StartTime string    `db:"start_time" json:"hora_inicio"`
	EndTime   string    `db:"end_time" json:"hora_fim"`
	Active    bool      `db:"active" json:"ativo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Blackout is an ad-hoc interval during which no slot may be offered.
type Blackout struct {
	ID        string    `db:"id" json:"id"`
	StartAt   time.Time `db:"start_at" json:"inicio"`
	EndAt     time.Time `db:"end_at" json:"fim"`
	Reason    string    `db:"reason" json:"motivo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Slot is a free, bookable interval derived from windows, bookings and blackouts.
type Slot struct {
	Inicio     time.Time `json:"inicio"`
	Fim        time.Time `json:"fim"`
	Data       string    `json:"data"`
	Hora       string    `json:"hora"`
	Disponivel bool      `json:"disponivel"`
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two half-open intervals intersect.
func (r TimeRange) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && r.End.After(start)
}

// BlackoutFilter narrows blackout listings.
type BlackoutFilter struct {
	From *time.Time
	To   *time.Time
}
