package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

type availabilityRepository interface {
	ListWindows(ctx context.Context, activeOnly bool) ([]models.AvailabilityWindow, error)
	ListBlackouts(ctx context.Context, filter models.BlackoutFilter) ([]models.Blackout, error)
}

type blockingBookingReader interface {
	ListBlockingBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

type clinicServiceReader interface {
	List(ctx context.Context, activeOnly bool) ([]models.ClinicService, error)
	FindByID(ctx context.Context, id string) (*models.ClinicService, error)
}

// AvailabilityConfig tunes slot generation.
type AvailabilityConfig struct {
	Location    *time.Location
	Granularity time.Duration
	MaxDays     int
}

// AvailabilityResult is the response of a slot query.
type AvailabilityResult struct {
	Slots []models.Slot
	// CacheHit is true when every requested day came from the cache.
	CacheHit bool
}

// AvailabilityService answers free-slot queries through the per-day cache.
type AvailabilityService struct {
	windows  availabilityRepository
	bookings blockingBookingReader
	services clinicServiceReader
	cache    *AvailabilityCache
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      AvailabilityConfig
	now      func() time.Time
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(windows availabilityRepository, bookings blockingBookingReader, services clinicServiceReader, cache *AvailabilityCache, metrics *MetricsService, logger *zap.Logger, cfg AvailabilityConfig) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = defaultGranularity
	}
	return &AvailabilityService{
		windows:  windows,
		bookings: bookings,
		services: services,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// GetSlots returns free slots for the requested inclusive date range.
func (s *AvailabilityService) GetSlots(ctx context.Context, q dto.AvailabilityQuery) (*AvailabilityResult, error) {
	if q.DataInicio == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "data_inicio é obrigatória")
	}
	loc := s.cfg.Location
	from, err := parseDate(q.DataInicio, loc)
	if err != nil {
		return nil, err
	}
	to := from
	if q.DataFim != "" {
		if to, err = parseDate(q.DataFim, loc); err != nil {
			return nil, err
		}
	}
	days, err := expandDays(from, to, loc, s.cfg.MaxDays)
	if err != nil {
		return nil, err
	}

	var service *models.ClinicService
	if q.ServicoID != "" {
		if service, err = s.loadService(ctx, q.ServicoID); err != nil {
			return nil, err
		}
	}

	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Format(dateLayout)
	}

	cached, missing, stamp := s.cache.Lookup(ctx, keys)
	if len(missing) > 0 {
		computed, err := s.computeDays(ctx, missing)
		if err != nil {
			s.logger.Error("availability computation failed",
				zap.String("data_inicio", keys[0]), zap.String("data_fim", keys[len(keys)-1]), zap.Error(err))
			return nil, err
		}
		for day, slots := range computed {
			cached[day] = slots
			s.cache.Store(ctx, stamp, day, slots)
		}
	}

	all := make([]models.Slot, 0)
	for _, day := range keys {
		all = append(all, cached[day]...)
	}
	all = FilterPast(all, s.now())
	if service != nil {
		all = FitDuration(all, service.Duration(), s.cfg.Granularity)
	}

	return &AvailabilityResult{Slots: all, CacheHit: len(missing) == 0}, nil
}

// computeDays runs the engine over the span covering the missing days and splits the output per day.
func (s *AvailabilityService) computeDays(ctx context.Context, missing []string) (map[string][]models.Slot, error) {
	loc := s.cfg.Location
	first, err := parseDate(missing[0], loc)
	if err != nil {
		return nil, err
	}
	last, err := parseDate(missing[len(missing)-1], loc)
	if err != nil {
		return nil, err
	}
	spanEnd := last.AddDate(0, 0, 1)

	start := time.Now()
	windows, err := s.windows.ListWindows(ctx, true)
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao carregar janelas de atendimento")
	}
	bookings, err := s.bookings.ListBlockingBetween(ctx, first, spanEnd)
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao carregar agendamentos")
	}
	blackouts, err := s.windows.ListBlackouts(ctx, models.BlackoutFilter{From: &first, To: &spanEnd})
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao carregar bloqueios")
	}
	s.metrics.ObserveDBQuery("availability_inputs", time.Since(start))

	slots, err := ComputeSlots(SlotQuery{
		Windows:     windows,
		Bookings:    bookings,
		Blackouts:   blackouts,
		RangeStart:  first,
		RangeEnd:    last,
		Granularity: s.cfg.Granularity,
		Location:    loc,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSlotsComputed(len(slots))

	byDay := make(map[string][]models.Slot, len(missing))
	for _, d := range missing {
		byDay[d] = []models.Slot{}
	}
	for _, slot := range slots {
		if _, wanted := byDay[slot.Data]; wanted {
			byDay[slot.Data] = append(byDay[slot.Data], slot)
		}
	}
	return byDay, nil
}

// ListServices returns the active bookable services.
func (s *AvailabilityService) ListServices(ctx context.Context) ([]models.ClinicService, error) {
	services, err := s.services.List(ctx, true)
	if err != nil {
		return nil, appErrors.Internal(err, "falha ao listar serviços")
	}
	return services, nil
}

func (s *AvailabilityService) loadService(ctx context.Context, id string) (*models.ClinicService, error) {
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

// FitDuration keeps the slots where a booking of the given duration fits in consecutive free slots,
// widening Fim to the full duration. Durations up to the granularity return the input unchanged.
func FitDuration(slots []models.Slot, duration, granularity time.Duration) []models.Slot {
	if duration <= granularity || granularity <= 0 {
		return slots
	}
	free := make(map[int64]struct{}, len(slots))
	for _, slot := range slots {
		free[slot.Inicio.Unix()] = struct{}{}
	}
	steps := int((duration + granularity - 1) / granularity)

	out := make([]models.Slot, 0, len(slots))
	for _, slot := range slots {
		fits := true
		for i := 1; i < steps; i++ {
			if _, ok := free[slot.Inicio.Add(time.Duration(i)*granularity).Unix()]; !ok {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		widened := slot
		widened.Fim = slot.Inicio.Add(duration)
		out = append(out, widened)
	}
	return out
}
