package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/repository"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

type scheduleRepository interface {
	ListWindows(ctx context.Context, activeOnly bool) ([]models.AvailabilityWindow, error)
	FindWindowByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error
	UpdateWindow(ctx context.Context, w *models.AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id string) error
	ListBlackouts(ctx context.Context, filter models.BlackoutFilter) ([]models.Blackout, error)
	FindBlackoutByID(ctx context.Context, id string) (*models.Blackout, error)
	CreateBlackout(ctx context.Context, b *models.Blackout) error
	DeleteBlackout(ctx context.Context, id string) error
}

// ScheduleConfig tunes the schedule administration service.
type ScheduleConfig struct {
	Location   *time.Location
	InstanceID string
	// MaxBlackoutDays caps how many days a single blackout may span.
	MaxBlackoutDays int
}

// ScheduleService manages weekly windows and blackouts, dropping the cached days they affect.
type ScheduleService struct {
	repo      scheduleRepository
	cache     *AvailabilityCache
	events    BookingEventPublisher
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleConfig
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, cache *AvailabilityCache, events BookingEventPublisher, audit auditWriter, validate *validator.Validate, logger *zap.Logger, cfg ScheduleConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxBlackoutDays <= 0 {
		cfg.MaxBlackoutDays = 366
	}
	return &ScheduleService{repo: repo, cache: cache, events: events, audit: audit, validator: validate, logger: logger, cfg: cfg}
}

// ListWindows returns every configured weekly window.
func (s *ScheduleService) ListWindows(ctx context.Context) ([]models.AvailabilityWindow, error) {
	windows, err := s.repo.ListWindows(ctx, false)
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao listar janelas de atendimento")
	}
	return windows, nil
}

// CreateWindow adds a weekly window. Only one active window per weekday is accepted.
func (s *ScheduleService) CreateWindow(ctx context.Context, actor dto.Actor, req dto.WindowRequest) (*models.AvailabilityWindow, error) {
	window, err := s.buildWindow(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateWindow(ctx, &window); err != nil {
		return nil, s.windowWriteError(err, "falha ao criar janela de atendimento")
	}
	s.windowsChanged(ctx, actor, window.ID, window)
	return &window, nil
}

// UpdateWindow replaces an existing window.
func (s *ScheduleService) UpdateWindow(ctx context.Context, actor dto.Actor, id string, req dto.WindowRequest) (*models.AvailabilityWindow, error) {
	existing, err := s.repo.FindWindowByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "janela de atendimento não encontrada")
		}
		return nil, appErrors.Internal(err, "falha ao carregar janela de atendimento")
	}
	window, err := s.buildWindow(req)
	if err != nil {
		return nil, err
	}
	window.ID = existing.ID
	window.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateWindow(ctx, &window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "janela de atendimento não encontrada")
		}
		return nil, s.windowWriteError(err, "falha ao atualizar janela de atendimento")
	}
	s.windowsChanged(ctx, actor, window.ID, window)
	return &window, nil
}

// DeleteWindow removes a window; existing bookings are kept.
func (s *ScheduleService) DeleteWindow(ctx context.Context, actor dto.Actor, id string) error {
	if err := s.repo.DeleteWindow(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "janela de atendimento não encontrada")
		}
		return appErrors.Internal(err, "falha ao remover janela de atendimento")
	}
	s.windowsChanged(ctx, actor, id, nil)
	return nil
}

// ListBlackouts returns blackouts intersecting the optional date range.
func (s *ScheduleService) ListBlackouts(ctx context.Context, q dto.BlackoutQuery) ([]models.Blackout, error) {
	var filter models.BlackoutFilter
	if q.DataInicio != "" {
		from, err := parseDate(q.DataInicio, s.cfg.Location)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if q.DataFim != "" {
		to, err := parseDate(q.DataFim, s.cfg.Location)
		if err != nil {
			return nil, err
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	blackouts, err := s.repo.ListBlackouts(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao listar bloqueios")
	}
	return blackouts, nil
}

// CreateBlackout blocks an interval. Existing bookings inside it are not touched.
func (s *ScheduleService) CreateBlackout(ctx context.Context, actor dto.Actor, req dto.BlackoutRequest) (*models.Blackout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "dados do bloqueio inválidos")
	}
	start, err := parseDateTime(req.Inicio, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	end, err := parseDateTime(req.Fim, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "o fim do bloqueio deve ser posterior ao início")
	}
	days, err := touchedDays(start, end, s.cfg.Location, s.cfg.MaxBlackoutDays)
	if err != nil {
		return nil, err
	}

	blackout := models.Blackout{StartAt: start, EndAt: end, Reason: req.Motivo}
	if err := s.repo.CreateBlackout(ctx, &blackout); err != nil {
		return nil, appErrors.Internal(err, "falha ao criar bloqueio")
	}
	s.blackoutChanged(ctx, actor, blackout, days)
	return &blackout, nil
}

// DeleteBlackout lifts a blackout and frees its days in the cache.
func (s *ScheduleService) DeleteBlackout(ctx context.Context, actor dto.Actor, id string) error {
	blackout, err := s.repo.FindBlackoutByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "bloqueio não encontrado")
		}
		return appErrors.Internal(err, "falha ao carregar bloqueio")
	}
	if err := s.repo.DeleteBlackout(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "bloqueio não encontrado")
		}
		return appErrors.Internal(err, "falha ao remover bloqueio")
	}
	days, _ := touchedDays(blackout.StartAt, blackout.EndAt, s.cfg.Location, 0)
	s.blackoutChanged(ctx, actor, *blackout, days)
	return nil
}

func (s *ScheduleService) buildWindow(req dto.WindowRequest) (models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AvailabilityWindow{}, appErrors.Validation(err, "dados da janela inválidos")
	}
	window := models.AvailabilityWindow{
		DayOfWeek: *req.DiaSemana,
		StartTime: req.HoraInicio,
		EndTime:   req.HoraFim,
		Active:    true,
	}
	if req.Ativo != nil {
		window.Active = *req.Ativo
	}
	if err := ValidateWindow(window); err != nil {
		return models.AvailabilityWindow{}, err
	}
	return window, nil
}

func (s *ScheduleService) windowWriteError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, "já existe uma janela ativa para este dia da semana")
	}
	return appErrors.Internal(err, message)
}

// windowsChanged drops every cached day since a weekly rule affects an unbounded set of dates.
func (s *ScheduleService) windowsChanged(ctx context.Context, actor dto.Actor, id string, payload interface{}) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("availability invalidation failed", zap.String("scope", "all"), zap.Error(err))
	}
	s.publish(ctx, models.BookingChange{Kind: models.ChangeSchedule, All: true})
	s.recordAudit(ctx, actor, models.AuditActionWindowChange, "janelas", id, payload)
}

func (s *ScheduleService) blackoutChanged(ctx context.Context, actor dto.Actor, blackout models.Blackout, days []string) {
	if err := s.cache.Invalidate(ctx, days...); err != nil {
		s.logger.Warn("availability invalidation failed", zap.Strings("days", days), zap.Error(err))
	}
	s.publish(ctx, models.BookingChange{Kind: models.ChangeSchedule, Days: days})
	s.recordAudit(ctx, actor, models.AuditActionBlackoutChange, "bloqueios", blackout.ID, blackout)
}

func (s *ScheduleService) publish(ctx context.Context, change models.BookingChange) {
	if s.events == nil {
		return
	}
	change.Origin = s.cfg.InstanceID
	change.OccurredAt = time.Now().UTC()
	if err := s.events.PublishBookingChange(ctx, change); err != nil {
		s.logger.Warn("schedule event publish failed", zap.Error(err))
	}
}

func (s *ScheduleService) recordAudit(ctx context.Context, actor dto.Actor, action, resource, id string, payload interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: resource, IPAddress: actor.IP, UserAgent: actor.UserAgent}
	if id != "" {
		entry.ResourceID = &id
	}
	if actor.UserID != "" {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if payload != nil {
		entry.NewValues, _ = json.Marshal(payload)
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

// touchedDays lists the local calendar days intersecting [start, end).
func touchedDays(start, end time.Time, loc *time.Location, maxDays int) ([]string, error) {
	last := end.Add(-time.Nanosecond)
	days, err := expandDays(start, last, loc, maxDays)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Format(dateLayout)
	}
	return keys, nil
}
