package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
	"github.com/noah-isme/portal-agenda-api/pkg/export"
)

// Export formats accepted by the agenda export.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const exportPageSize = 200

var agendaHeaders = []string{"Data", "Hora", "Paciente", "Telefone", "Serviço", "Status", "Observações"}

var agendaPDFWidths = map[string]float64{
	"Data":        24,
	"Hora":        16,
	"Paciente":    60,
	"Telefone":    32,
	"Serviço":     40,
	"Status":      24,
	"Observações": 80,
}

type bookingLister interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, widths map[string]float64) ([]byte, error)
}

// ExportResult is a rendered agenda ready to be streamed as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders the clinic agenda for a date range as CSV or PDF.
type ExportService struct {
	bookings  bookingLister
	csv       csvRenderer
	pdf       pdfRenderer
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	maxDays   int
}

// NewExportService constructs an ExportService.
func NewExportService(bookings bookingLister, audit auditWriter, validate *validator.Validate, logger *zap.Logger, loc *time.Location, maxDays int, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("Portal Agenda")
	}
	return &ExportService{
		bookings:  bookings,
		csv:       csv,
		pdf:       pdf,
		audit:     audit,
		validator: validate,
		logger:    logger,
		loc:       loc,
		maxDays:   maxDays,
	}
}

// Agenda renders every booking in [data_inicio, data_fim] ordered by start time.
func (s *ExportService) Agenda(ctx context.Context, actor dto.Actor, q dto.ExportBookingsQuery) (*ExportResult, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Validation(err, "parâmetros de exportação inválidos")
	}
	from, err := parseDate(q.DataInicio, s.loc)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(q.DataFim, s.loc)
	if err != nil {
		return nil, err
	}
	if _, err := expandDays(from, to, s.loc, s.maxDays); err != nil {
		return nil, err
	}

	rows, err := s.collect(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao carregar agenda")
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Agenda %s a %s", from.Format("02/01/2006"), to.Format("02/01/2006")),
		Headers: agendaHeaders,
		Rows:    s.datasetRows(rows),
	}

	format := strings.ToLower(q.Formato)
	if format == "" {
		format = ExportFormatCSV
	}
	result := &ExportResult{Rows: len(rows)}
	base := fmt.Sprintf("agenda_%s_%s", from.Format("20060102"), to.Format("20060102"))
	switch format {
	case ExportFormatPDF:
		result.Body, err = s.pdf.Render(dataset, agendaPDFWidths)
		result.Filename = base + ".pdf"
		result.ContentType = "application/pdf"
	default:
		result.Body, err = s.csv.Render(dataset)
		result.Filename = base + ".csv"
		result.ContentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao gerar arquivo")
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:    models.AuditActionAgendaExport,
			Resource:  "agendamentos",
			NewValues: []byte(fmt.Sprintf(`{"formato":%q,"linhas":%d}`, format, len(rows))),
			IPAddress: actor.IP,
			UserAgent: actor.UserAgent,
		}
		if actor.UserID != "" {
			uid := actor.UserID
			entry.UserID = &uid
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.logger.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
		}
	}
	return result, nil
}

func (s *ExportService) collect(ctx context.Context, from, to time.Time) ([]models.BookingDetail, error) {
	var all []models.BookingDetail
	for page := 1; ; page++ {
		items, total, err := s.bookings.List(ctx, models.BookingFilter{From: &from, To: &to, Page: page, PageSize: exportPageSize, SortOrder: "ASC"})
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < exportPageSize || len(all) >= total {
			return all, nil
		}
	}
}

func (s *ExportService) datasetRows(items []models.BookingDetail) []map[string]string {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		start := item.StartAt.In(s.loc)
		rows = append(rows, map[string]string{
			"Data":        start.Format("02/01/2006"),
			"Hora":        start.Format(hourLayout),
			"Paciente":    item.PatientName,
			"Telefone":    item.PatientPhone,
			"Serviço":     item.ServiceName,
			"Status":      string(item.Status),
			"Observações": flattenNotes(item.Notes),
		})
	}
	return rows
}

func flattenNotes(notes string) string {
	return strings.Join(strings.Fields(notes), " ")
}
