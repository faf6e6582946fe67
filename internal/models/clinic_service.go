package models

import "time"

// ClinicService is a bookable procedure or consult type; it defines the booking duration.
type ClinicService struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"nome"`
	Description     *string   `db:"description" json:"descricao,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duracao_minutos"`
	Active          bool      `db:"active" json:"ativo"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Duration converts DurationMinutes into a time.Duration.
func (s ClinicService) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
