package dto

// WindowRequest creates or replaces a weekly availability window.
type WindowRequest struct {
	DiaSemana  *int   `json:"dia_semana" validate:"required,min=0,max=6"`
	HoraInicio string `json:"hora_inicio" validate:"required"`
	HoraFim    string `json:"hora_fim" validate:"required"`
	Ativo      *bool  `json:"ativo"`
}

// BlackoutRequest creates a blackout interval.
type BlackoutRequest struct {
	Inicio string `json:"inicio" validate:"required"`
	Fim    string `json:"fim" validate:"required"`
	Motivo string `json:"motivo" validate:"max=300"`
}

// BlackoutQuery filters blackout listings.
type BlackoutQuery struct {
	DataInicio string `form:"data_inicio"`
	DataFim    string `form:"data_fim"`
}
