package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/repository"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
	"github.com/noah-isme/portal-agenda-api/pkg/signing"
)

// ConfirmAction is the signed-link action accepted by ConfirmByToken.
const ConfirmAction = "confirmar"

type bookingRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.BookingTx) error) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindDetailByID(ctx context.Context, id string) (*models.BookingDetail, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error)
}

type windowReader interface {
	ListWindows(ctx context.Context, activeOnly bool) ([]models.AvailabilityWindow, error)
}

type clinicServiceFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClinicService, error)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// BookingEventPublisher announces committed booking changes to peer instances.
type BookingEventPublisher interface {
	PublishBookingChange(ctx context.Context, change models.BookingChange) error
}

// BookingNotifier dispatches patient notifications without blocking the caller.
type BookingNotifier interface {
	Dispatch(ctx context.Context, n models.BookingNotification)
}

// ReminderScheduler plans the day-before reminder of a booking.
type ReminderScheduler interface {
	Schedule(ctx context.Context, booking models.Booking) error
}

// BookingConfig tunes the mutation flow.
type BookingConfig struct {
	Location    *time.Location
	Granularity time.Duration
	InstanceID  string
}

// BookingDeps groups the optional collaborators invoked after commit.
type BookingDeps struct {
	Cache     *AvailabilityCache
	Events    BookingEventPublisher
	Notifier  BookingNotifier
	Reminders ReminderScheduler
	Audit     auditWriter
	Signer    *signing.LinkSigner
	Metrics   *MetricsService
}

// BookingService implements the transactional create, reschedule and cancel flow.
type BookingService struct {
	repo      bookingRepository
	windows   windowReader
	services  clinicServiceFinder
	deps      BookingDeps
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BookingConfig
	now       func() time.Time
}

// NewBookingService instantiates BookingService.
func NewBookingService(repo bookingRepository, windows windowReader, services clinicServiceFinder, deps BookingDeps, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = defaultGranularity
	}
	return &BookingService{
		repo:      repo,
		windows:   windows,
		services:  services,
		deps:      deps,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create books a new appointment after re-checking the interval inside a transaction.
func (s *BookingService) Create(ctx context.Context, actor dto.Actor, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "dados do agendamento inválidos")
	}
	patientID, err := s.resolvePatient(actor, req.PacienteID)
	if err != nil {
		return nil, err
	}
	start, err := parseDateTime(req.DataAgendamento, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	if start.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "não é possível agendar em horário passado")
	}
	svc, err := s.loadService(ctx, req.ServicoID)
	if err != nil {
		return nil, err
	}
	end := start.Add(svc.Duration())
	if err := s.ensureBookable(ctx, start, end); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		PatientID: patientID,
		ServiceID: svc.ID,
		StartAt:   start,
		EndAt:     end,
		Status:    models.BookingAgendado,
		Notes:     strings.TrimSpace(req.Observacoes),
	}
	day := dayKey(start, s.cfg.Location)

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		if err := tx.LockDays(ctx, day); err != nil {
			return err
		}
		if err := s.ensureFree(ctx, tx, start, end, ""); err != nil {
			return err
		}
		return tx.Insert(ctx, booking)
	})
	if err != nil {
		return nil, s.failMutation("create", err, zap.String("start_at", start.Format(time.RFC3339)), zap.String("patient_id", patientID))
	}

	s.deps.Metrics.RecordBookingOperation("create", "ok")
	s.afterCommit(ctx, actor, models.AuditActionBookingCreate, models.ChangeCreated, *booking, nil, "", day)
	s.scheduleReminder(ctx, *booking)
	return booking, nil
}

// Reschedule moves an open booking to a new start, keeping its id.
func (s *BookingService) Reschedule(ctx context.Context, actor dto.Actor, id string, req dto.RescheduleBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "dados do reagendamento inválidos")
	}
	newStart, err := parseDateTime(req.NovaData, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	if newStart.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a nova data não pode estar no passado")
	}

	current, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, current); err != nil {
		return nil, err
	}
	// a deactivated service still carries the duration of bookings made before
	svc, err := s.services.FindByID(ctx, current.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "serviço não encontrado")
		}
		return nil, appErrors.Internal(err, "falha ao carregar serviço")
	}
	newEnd := newStart.Add(svc.Duration())
	if err := s.ensureBookable(ctx, newStart, newEnd); err != nil {
		return nil, err
	}

	oldDay := dayKey(current.StartAt, s.cfg.Location)
	newDay := dayKey(newStart, s.cfg.Location)
	var updated models.Booking
	var previousStart time.Time

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		if err := tx.LockDays(ctx, oldDay, newDay); err != nil {
			return err
		}
		locked, err := tx.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if dayKey(locked.StartAt, s.cfg.Location) != oldDay {
			return appErrors.Clone(appErrors.ErrConflict, "o agendamento foi alterado, tente novamente")
		}
		if !locked.Status.Open() {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("agendamento com status %s não pode ser reagendado", locked.Status))
		}
		if locked.StartAt.Before(s.now()) {
			return appErrors.ErrPastAction
		}
		if err := s.ensureFree(ctx, tx, newStart, newEnd, locked.ID); err != nil {
			return err
		}

		previousStart = locked.StartAt
		locked.StartAt = newStart
		locked.EndAt = newEnd
		locked.Status = models.BookingAgendado
		locked.Notes = appendNote(locked.Notes, fmt.Sprintf("[reagendado %s] %s", s.now().In(s.cfg.Location).Format("02/01/2006 15:04"), strings.TrimSpace(req.Motivo)))
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}
		updated = *locked
		return nil
	})
	if err != nil {
		return nil, s.failMutation("reschedule", err, zap.String("booking_id", id), zap.String("nova_data", newStart.Format(time.RFC3339)))
	}

	s.deps.Metrics.RecordBookingOperation("reschedule", "ok")
	s.afterCommit(ctx, actor, models.AuditActionBookingResched, models.ChangeRescheduled, updated, &previousStart, req.Motivo, oldDay, newDay)
	s.scheduleReminder(ctx, updated)
	return &updated, nil
}

// Cancel marks an upcoming booking as cancelled, releasing its interval.
func (s *BookingService) Cancel(ctx context.Context, actor dto.Actor, id string, req dto.CancelBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "informe o motivo do cancelamento")
	}
	reason := strings.TrimSpace(req.Motivo)

	var updated models.Booking
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		locked, err := tx.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.authorize(actor, locked); err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("agendamento com status %s não pode ser cancelado", locked.Status))
		}
		if locked.StartAt.Before(s.now()) {
			return appErrors.ErrPastAction
		}
		locked.Status = models.BookingCancelado
		locked.CancelReason = &reason
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}
		updated = *locked
		return nil
	})
	if err != nil {
		return nil, s.failMutation("cancel", err, zap.String("booking_id", id))
	}

	s.deps.Metrics.RecordBookingOperation("cancel", "ok")
	s.afterCommit(ctx, actor, models.AuditActionBookingCancel, models.ChangeCancelled, updated, nil, reason, dayKey(updated.StartAt, s.cfg.Location))
	return &updated, nil
}

// Confirm moves an agendado booking to confirmado.
func (s *BookingService) Confirm(ctx context.Context, actor dto.Actor, id string) (*models.Booking, error) {
	return s.confirm(ctx, actor, id, false)
}

// ConfirmByToken confirms attendance from the signed link sent to the patient.
// Replaying the link on an already confirmed booking is a no-op.
func (s *BookingService) ConfirmByToken(ctx context.Context, token string) (*models.Booking, error) {
	if s.deps.Signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "confirmação por link indisponível")
	}
	claims, err := s.deps.Signer.Parse(token)
	if err != nil {
		if errors.Is(err, signing.ErrExpiredToken) {
			return nil, appErrors.Validation(err, "link de confirmação expirado")
		}
		return nil, appErrors.Validation(err, "link de confirmação inválido")
	}
	if claims.Action != ConfirmAction {
		return nil, appErrors.Clone(appErrors.ErrValidation, "link de confirmação inválido")
	}
	return s.confirm(ctx, dto.Actor{Role: string(models.RolePaciente)}, claims.BookingID, true)
}

func (s *BookingService) confirm(ctx context.Context, actor dto.Actor, id string, viaLink bool) (*models.Booking, error) {
	var updated models.Booking
	changed := false
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		locked, err := tx.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !viaLink {
			if err := s.authorize(actor, locked); err != nil {
				return err
			}
		}
		if viaLink && locked.Status == models.BookingConfirmado {
			updated = *locked
			return nil
		}
		if locked.Status != models.BookingAgendado {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("agendamento com status %s não pode ser confirmado", locked.Status))
		}
		if locked.StartAt.Before(s.now()) {
			return appErrors.ErrPastAction
		}
		locked.Status = models.BookingConfirmado
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}
		updated = *locked
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.failMutation("confirm", err, zap.String("booking_id", id))
	}
	if changed {
		if viaLink {
			actor.UserID = updated.PatientID
		}
		s.deps.Metrics.RecordBookingOperation("confirm", "ok")
		s.recordAudit(ctx, actor, models.AuditActionBookingConfirm, updated)
	}
	return &updated, nil
}

// MarkAttendance records the outcome of a consult that has already started.
func (s *BookingService) MarkAttendance(ctx context.Context, actor dto.Actor, id string, status models.BookingStatus) (*models.Booking, error) {
	if status != models.BookingRealizado && status != models.BookingFaltou {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status de presença inválido")
	}
	var updated models.Booking
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		locked, err := tx.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !locked.Status.Open() {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("agendamento com status %s não aceita registro de presença", locked.Status))
		}
		if s.now().Before(locked.StartAt) {
			return appErrors.Clone(appErrors.ErrValidation, "a consulta ainda não começou")
		}
		locked.Status = status
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}
		updated = *locked
		return nil
	})
	if err != nil {
		return nil, s.failMutation("attendance", err, zap.String("booking_id", id))
	}
	s.deps.Metrics.RecordBookingOperation("attendance", "ok")
	s.recordAudit(ctx, actor, models.AuditActionBookingAttend, updated)
	return &updated, nil
}

// Get returns a booking with display names. Patients only see their own bookings.
func (s *BookingService) Get(ctx context.Context, actor dto.Actor, id string) (*models.BookingDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agendamento não encontrado")
		}
		return nil, appErrors.Internal(err, "falha ao carregar agendamento")
	}
	if isPatient(actor) && detail.PatientID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "agendamento não encontrado")
	}
	return detail, nil
}

// List returns bookings matching the query with pagination metadata.
func (s *BookingService) List(ctx context.Context, actor dto.Actor, q dto.ListBookingsQuery) ([]models.BookingDetail, *models.Pagination, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, appErrors.Validation(err, "filtros inválidos")
	}
	filter, err := s.buildFilter(q)
	if err != nil {
		return nil, nil, err
	}
	if isPatient(actor) {
		filter.PatientID = actor.UserID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "falha ao listar agendamentos")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *BookingService) buildFilter(q dto.ListBookingsQuery) (models.BookingFilter, error) {
	filter := models.BookingFilter{PatientID: q.PacienteID, Page: q.Page, PageSize: q.PageSize}
	if q.DataInicio != "" {
		from, err := parseDate(q.DataInicio, s.cfg.Location)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if q.DataFim != "" {
		to, err := parseDate(q.DataFim, s.cfg.Location)
		if err != nil {
			return filter, err
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "data final anterior à data inicial")
	}
	if q.Status != "" {
		for _, raw := range strings.Split(q.Status, ",") {
			status := models.BookingStatus(strings.TrimSpace(raw))
			if !status.Valid() {
				return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status inválido: %s", raw))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, nil
}

func (s *BookingService) resolvePatient(actor dto.Actor, requested string) (string, error) {
	if isPatient(actor) {
		if requested != "" && requested != actor.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "pacientes só podem agendar para si mesmos")
		}
		return actor.UserID, nil
	}
	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "paciente_id é obrigatório")
	}
	return requested, nil
}

func (s *BookingService) authorize(actor dto.Actor, booking *models.Booking) error {
	if isPatient(actor) && actor.UserID != "" && booking.PatientID != actor.UserID {
		return appErrors.Clone(appErrors.ErrNotFound, "agendamento não encontrado")
	}
	return nil
}

func (s *BookingService) loadService(ctx context.Context, id string) (*models.ClinicService, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "serviço não encontrado")
		}
		return nil, appErrors.Internal(err, "falha ao carregar serviço")
	}
	if !svc.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "serviço não encontrado")
	}
	return svc, nil
}

func (s *BookingService) findBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "agendamento não encontrado")
		}
		return nil, appErrors.Internal(err, "falha ao carregar agendamento")
	}
	return booking, nil
}

// ensureBookable checks the interval against the weekly windows before any transaction is opened.
func (s *BookingService) ensureBookable(ctx context.Context, start, end time.Time) error {
	windows, err := s.windows.ListWindows(ctx, true)
	if err != nil {
		return appErrors.Internal(err, "falha ao carregar janelas de atendimento")
	}
	ok, err := WindowCovers(windows, start, end, s.cfg.Granularity, s.cfg.Location)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "horário fora da agenda de atendimento")
	}
	return nil
}

// ensureFree is the write-time re-check; it must run after the day lock is held.
func (s *BookingService) ensureFree(ctx context.Context, tx repository.BookingTx, start, end time.Time, excludeID string) error {
	overlaps, err := tx.FindOverlapping(ctx, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "horário indisponível")
	}
	blackouts, err := tx.FindOverlappingBlackouts(ctx, start, end)
	if err != nil {
		return err
	}
	if len(blackouts) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "horário bloqueado pela clínica")
	}
	return nil
}

// failMutation normalises errors coming out of a booking transaction.
func (s *BookingService) failMutation(op string, err error, fields ...zap.Field) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		if appErr.Code == appErrors.ErrConflict.Code {
			s.deps.Metrics.RecordBookingOperation(op, "conflict")
		} else {
			s.deps.Metrics.RecordBookingOperation(op, "rejected")
		}
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		s.deps.Metrics.RecordBookingOperation(op, "rejected")
		return appErrors.Clone(appErrors.ErrNotFound, "agendamento não encontrado")
	case errors.Is(err, repository.ErrOverlap):
		s.deps.Metrics.RecordBookingOperation(op, "conflict")
		return appErrors.Clone(appErrors.ErrConflict, "horário indisponível")
	case errors.Is(err, repository.ErrReference):
		s.deps.Metrics.RecordBookingOperation(op, "rejected")
		return appErrors.Clone(appErrors.ErrNotFound, "paciente ou serviço não encontrado")
	}
	s.deps.Metrics.RecordBookingOperation(op, "error")
	s.logger.Error("booking transaction failed", append(fields, zap.String("operation", op), zap.Error(err))...)
	return appErrors.Internal(err, "não foi possível concluir a operação")
}

// afterCommit runs the best-effort side effects of a committed mutation.
func (s *BookingService) afterCommit(ctx context.Context, actor dto.Actor, auditAction, kind string, booking models.Booking, previousStart *time.Time, reason string, days ...string) {
	if err := s.deps.Cache.Invalidate(ctx, days...); err != nil {
		s.logger.Warn("availability invalidation failed", zap.Strings("days", days), zap.String("booking_id", booking.ID), zap.Error(err))
	}
	if s.deps.Events != nil {
		change := models.BookingChange{
			Kind:       kind,
			BookingID:  booking.ID,
			Days:       days,
			Origin:     s.cfg.InstanceID,
			OccurredAt: s.now().UTC(),
		}
		if err := s.deps.Events.PublishBookingChange(ctx, change); err != nil {
			s.logger.Warn("booking event publish failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.Dispatch(ctx, models.BookingNotification{
			Kind:            kind,
			BookingID:       booking.ID,
			PatientID:       booking.PatientID,
			ServiceID:       booking.ServiceID,
			StartAt:         booking.StartAt,
			PreviousStartAt: previousStart,
			Reason:          reason,
		})
	}
	s.recordAudit(ctx, actor, auditAction, booking)
}

func (s *BookingService) scheduleReminder(ctx context.Context, booking models.Booking) {
	if s.deps.Reminders == nil {
		return
	}
	if err := s.deps.Reminders.Schedule(ctx, booking); err != nil {
		s.logger.Warn("reminder scheduling failed", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func (s *BookingService) recordAudit(ctx context.Context, actor dto.Actor, action string, booking models.Booking) {
	if s.deps.Audit == nil {
		return
	}
	payload, _ := json.Marshal(booking)
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "agendamentos",
		ResourceID: &booking.ID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := s.deps.Audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func isPatient(actor dto.Actor) bool {
	return actor.Role == string(models.RolePaciente)
}

func appendNote(notes, line string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
