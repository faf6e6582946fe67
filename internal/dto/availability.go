package dto

// AvailabilityQuery is bound from the query string of GET /disponibilidade.
// Dates are YYYY-MM-DD in the clinic timezone; data_fim defaults to data_inicio.
type AvailabilityQuery struct {
	DataInicio string `form:"data_inicio" validate:"required"`
	DataFim    string `form:"data_fim"`
	ServicoID  string `form:"servico_id"`
}
