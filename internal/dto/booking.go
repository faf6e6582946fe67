package dto

// CreateBookingRequest is the payload of POST /agendamentos.
// data_agendamento accepts RFC3339 or a local "YYYY-MM-DDTHH:MM" timestamp.
type CreateBookingRequest struct {
	PacienteID      string `json:"paciente_id"`
	ServicoID       string `json:"servico_id" validate:"required"`
	DataAgendamento string `json:"data_agendamento" validate:"required"`
	Observacoes     string `json:"observacoes" validate:"max=1000"`
}

// RescheduleBookingRequest is the payload of PUT /agendamentos/:id/reagendar.
type RescheduleBookingRequest struct {
	NovaData string `json:"nova_data" validate:"required"`
	Motivo   string `json:"motivo" validate:"max=500"`
}

// CancelBookingRequest is the payload of PUT /agendamentos/:id/cancelar.
type CancelBookingRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=500"`
}

// ListBookingsQuery is bound from the query string of GET /agendamentos.
type ListBookingsQuery struct {
	DataInicio string `form:"data_inicio"`
	DataFim    string `form:"data_fim"`
	PacienteID string `form:"paciente_id"`
	Status     string `form:"status"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,min=1,max=200"`
}

// ExportBookingsQuery is bound from the query string of GET /agendamentos/exportar.
type ExportBookingsQuery struct {
	DataInicio string `form:"data_inicio" validate:"required"`
	DataFim    string `form:"data_fim" validate:"required"`
	Formato    string `form:"formato" validate:"omitempty,oneof=csv pdf"`
}

// Actor identifies who is performing a booking operation.
type Actor struct {
	UserID    string
	Role      string
	IP        string
	UserAgent string
}
