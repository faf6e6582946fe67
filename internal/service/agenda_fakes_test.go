package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/repository"
)

// fakeAgenda is an in-memory stand-in for the availability and booking repositories.
// RunInTx holds txMu for the whole callback, which mirrors the serialisation given by the day lock.
type fakeAgenda struct {
	txMu sync.Mutex
	mu   sync.Mutex

	windows   []models.AvailabilityWindow
	blackouts []models.Blackout
	bookings  map[string]*models.Booking
	locks     [][]string
	seq       int

	skipOverlapCheck bool
	listBlockingHits int
}

func newFakeAgenda() *fakeAgenda {
	a := &fakeAgenda{bookings: map[string]*models.Booking{}}
	for day := time.Monday; day <= time.Friday; day++ {
		a.windows = append(a.windows, models.AvailabilityWindow{
			ID:        fmt.Sprintf("w-%d", day),
			DayOfWeek: int(day),
			StartTime: "09:00",
			EndTime:   "17:00",
			Active:    true,
		})
	}
	return a
}

func (a *fakeAgenda) seed(b models.Booking) *models.Booking {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b.ID == "" {
		a.seq++
		b.ID = fmt.Sprintf("seed-%d", a.seq)
	}
	stored := b
	a.bookings[b.ID] = &stored
	return &stored
}

func (a *fakeAgenda) get(id string) models.Booking {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.bookings[id]
}

func (a *fakeAgenda) blocking() []models.Booking {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Booking
	for _, b := range a.bookings {
		if b.Status.BlocksSlot() {
			out = append(out, *b)
		}
	}
	return out
}

func (a *fakeAgenda) ListWindows(_ context.Context, activeOnly bool) ([]models.AvailabilityWindow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AvailabilityWindow
	for _, w := range a.windows {
		if activeOnly && !w.Active {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (a *fakeAgenda) ListBlackouts(_ context.Context, filter models.BlackoutFilter) ([]models.Blackout, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Blackout
	for _, b := range a.blackouts {
		if filter.From != nil && !b.EndAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !b.StartAt.Before(*filter.To) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (a *fakeAgenda) ListBlockingBetween(_ context.Context, from, to time.Time) ([]models.Booking, error) {
	a.mu.Lock()
	a.listBlockingHits++
	a.mu.Unlock()
	var out []models.Booking
	for _, b := range a.blocking() {
		if b.StartAt.Before(to) && b.EndAt.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (a *fakeAgenda) FindByID(_ context.Context, id string) (*models.Booking, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (a *fakeAgenda) FindDetailByID(ctx context.Context, id string) (*models.BookingDetail, error) {
	b, err := a.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.BookingDetail{Booking: *b, PatientName: "Paciente " + b.PatientID, ServiceName: b.ServiceID}, nil
}

func (a *fakeAgenda) List(_ context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.BookingDetail
	for _, b := range a.bookings {
		if filter.PatientID != "" && b.PatientID != filter.PatientID {
			continue
		}
		if filter.From != nil && b.StartAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.StartAt.Before(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, models.BookingDetail{Booking: *b, PatientName: "Paciente " + b.PatientID, ServiceName: b.ServiceID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, len(out), nil
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func (a *fakeAgenda) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	a.txMu.Lock()
	defer a.txMu.Unlock()

	a.mu.Lock()
	snapshot := make(map[string]models.Booking, len(a.bookings))
	for id, b := range a.bookings {
		snapshot[id] = *b
	}
	a.mu.Unlock()

	if err := fn(ctx, &fakeAgendaTx{a: a}); err != nil {
		a.mu.Lock()
		a.bookings = make(map[string]*models.Booking, len(snapshot))
		for id, b := range snapshot {
			cp := b
			a.bookings[id] = &cp
		}
		a.mu.Unlock()
		return err
	}
	return nil
}

type fakeAgendaTx struct {
	a *fakeAgenda
}

func (t *fakeAgendaTx) LockDays(_ context.Context, days ...string) error {
	t.a.mu.Lock()
	defer t.a.mu.Unlock()
	t.a.locks = append(t.a.locks, append([]string(nil), days...))
	return nil
}

func (t *fakeAgendaTx) FindForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	return t.a.FindByID(ctx, id)
}

func (t *fakeAgendaTx) FindOverlapping(_ context.Context, start, end time.Time, excludeID string) ([]models.Booking, error) {
	if t.a.skipOverlapCheck {
		return nil, nil
	}
	return t.a.overlapping(start, end, excludeID), nil
}

func (a *fakeAgenda) overlapping(start, end time.Time, excludeID string) []models.Booking {
	var out []models.Booking
	for _, b := range a.blocking() {
		if b.ID == excludeID {
			continue
		}
		if b.StartAt.Before(end) && b.EndAt.After(start) {
			out = append(out, b)
		}
	}
	return out
}

func (t *fakeAgendaTx) FindOverlappingBlackouts(_ context.Context, start, end time.Time) ([]models.Blackout, error) {
	t.a.mu.Lock()
	defer t.a.mu.Unlock()
	var out []models.Blackout
	for _, b := range t.a.blackouts {
		if b.StartAt.Before(end) && b.EndAt.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Insert enforces the exclusion constraint the database would apply.
func (t *fakeAgendaTx) Insert(_ context.Context, booking *models.Booking) error {
	if len(t.a.overlapping(booking.StartAt, booking.EndAt, "")) > 0 {
		return repository.ErrOverlap
	}
	t.a.mu.Lock()
	defer t.a.mu.Unlock()
	t.a.seq++
	booking.ID = fmt.Sprintf("bk-%d", t.a.seq)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	t.a.bookings[booking.ID] = &stored
	return nil
}

func (t *fakeAgendaTx) Update(_ context.Context, booking *models.Booking) error {
	if booking.Status.BlocksSlot() && len(t.a.overlapping(booking.StartAt, booking.EndAt, booking.ID)) > 0 {
		return repository.ErrOverlap
	}
	t.a.mu.Lock()
	defer t.a.mu.Unlock()
	if _, ok := t.a.bookings[booking.ID]; !ok {
		return sql.ErrNoRows
	}
	booking.UpdatedAt = time.Now()
	stored := *booking
	t.a.bookings[booking.ID] = &stored
	return nil
}

type fakeServices struct {
	items map[string]*models.ClinicService
}

func newFakeServices() *fakeServices {
	return &fakeServices{items: map[string]*models.ClinicService{
		"consulta":     {ID: "consulta", Name: "Consulta", DurationMinutes: 30, Active: true},
		"procedimento": {ID: "procedimento", Name: "Procedimento", DurationMinutes: 60, Active: true},
		"antigo":       {ID: "antigo", Name: "Serviço desativado", DurationMinutes: 30, Active: false},
	}}
}

func (f *fakeServices) List(_ context.Context, activeOnly bool) ([]models.ClinicService, error) {
	var out []models.ClinicService
	for _, s := range f.items {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeServices) FindByID(_ context.Context, id string) (*models.ClinicService, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.BookingChange
	err     error
}

func (p *recordingPublisher) PublishBookingChange(_ context.Context, change models.BookingChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return p.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.BookingNotification
}

func (n *recordingNotifier) Dispatch(_ context.Context, msg models.BookingNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

type recordingReminders struct {
	mu        sync.Mutex
	scheduled []string
}

func (r *recordingReminders) Schedule(_ context.Context, booking models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, booking.ID)
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *recordingAudit) Create(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *log)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}
