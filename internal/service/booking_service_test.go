package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/dto"
	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/internal/repository"
	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
	"github.com/noah-isme/portal-agenda-api/pkg/signing"
)

var (
	staff   = dto.Actor{UserID: "func-1", Role: string(models.RoleFuncionario), IP: "10.0.0.1"}
	patient = dto.Actor{UserID: "pac-1", Role: string(models.RolePaciente)}
)

type bookingFixture struct {
	svc       *BookingService
	agenda    *fakeAgenda
	cache     *AvailabilityCache
	events    *recordingPublisher
	notifier  *recordingNotifier
	reminders *recordingReminders
	audit     *recordingAudit
	signer    *signing.LinkSigner
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(repository.NewMemoryCacheRepository(128, time.Minute), metrics, time.Minute, zap.NewNop(), true)
	f := &bookingFixture{
		agenda:    newFakeAgenda(),
		cache:     NewAvailabilityCache(cacheSvc, time.Minute, metrics, zap.NewNop()),
		events:    &recordingPublisher{},
		notifier:  &recordingNotifier{},
		reminders: &recordingReminders{},
		audit:     &recordingAudit{},
		signer:    signing.NewLinkSigner("secret", time.Hour),
	}
	f.svc = NewBookingService(f.agenda, f.agenda, newFakeServices(), BookingDeps{
		Cache:     f.cache,
		Events:    f.events,
		Notifier:  f.notifier,
		Reminders: f.reminders,
		Audit:     f.audit,
		Signer:    f.signer,
		Metrics:   metrics,
	}, validator.New(), zap.NewNop(), BookingConfig{Location: brt, Granularity: 30 * time.Minute, InstanceID: "api-1"})
	f.svc.now = func() time.Time { return monday(8, 0) }
	return f
}

func (f *bookingFixture) warm(t *testing.T, days ...string) {
	t.Helper()
	for _, day := range days {
		f.cache.Store(context.Background(), f.cache.Stamp(day), day, []models.Slot{{Data: day, Hora: "09:00"}})
	}
}

func (f *bookingFixture) cached(day string) bool {
	found, _, _ := f.cache.Lookup(context.Background(), []string{day})
	_, ok := found[day]
	return ok
}

func assertAppError(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, want.Code, appErr.Code, appErr.Message)
	assert.Equal(t, want.Status, appErr.Status)
}

func TestBookingServiceCreate(t *testing.T) {
	f := newBookingFixture(t)
	f.warm(t, "2024-06-10", "2024-06-11")

	booking, err := f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{
		PacienteID:      "pac-1",
		ServicoID:       "consulta",
		DataAgendamento: "2024-06-10T10:00",
		Observacoes:     "  primeira consulta ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, booking.ID)
	assert.True(t, booking.StartAt.Equal(monday(10, 0)))
	assert.True(t, booking.EndAt.Equal(monday(10, 30)))
	assert.Equal(t, models.BookingAgendado, booking.Status)
	assert.Equal(t, "primeira consulta", booking.Notes)

	assert.Equal(t, [][]string{{"2024-06-10"}}, f.agenda.locks)
	assert.False(t, f.cached("2024-06-10"))
	assert.True(t, f.cached("2024-06-11"))

	require.Len(t, f.events.changes, 1)
	assert.Equal(t, models.ChangeCreated, f.events.changes[0].Kind)
	assert.Equal(t, []string{"2024-06-10"}, f.events.changes[0].Days)
	assert.Equal(t, "api-1", f.events.changes[0].Origin)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "pac-1", f.notifier.sent[0].PatientID)
	assert.Equal(t, []string{booking.ID}, f.reminders.scheduled)
	assert.Equal(t, []string{models.AuditActionBookingCreate}, f.audit.actions())
}

func TestBookingServiceCreateAcceptsRFC3339(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{
		PacienteID:      "pac-1",
		ServicoID:       "procedimento",
		DataAgendamento: "2024-06-10T14:00:00-03:00",
	})
	require.NoError(t, err)
	assert.True(t, booking.EndAt.Equal(monday(15, 0)))
}

func TestBookingServiceCreatePatientScope(t *testing.T) {
	f := newBookingFixture(t)

	booking, err := f.svc.Create(context.Background(), patient, dto.CreateBookingRequest{
		ServicoID:       "consulta",
		DataAgendamento: "2024-06-10T09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "pac-1", booking.PatientID)

	_, err = f.svc.Create(context.Background(), patient, dto.CreateBookingRequest{
		PacienteID:      "pac-2",
		ServicoID:       "consulta",
		DataAgendamento: "2024-06-10T11:00",
	})
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{
		ServicoID:       "consulta",
		DataAgendamento: "2024-06-10T11:00",
	})
	assertAppError(t, err, appErrors.ErrValidation)
}

func TestBookingServiceCreateRejections(t *testing.T) {
	f := newBookingFixture(t)
	f.agenda.seed(models.Booking{ID: "existing", PatientID: "pac-9", ServiceID: "consulta", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingConfirmado})
	f.agenda.blackouts = []models.Blackout{{ID: "b-1", StartAt: monday(15, 0), EndAt: monday(16, 0), Reason: "reunião"}}

	cases := []struct {
		name string
		req  dto.CreateBookingRequest
		want *appErrors.Error
	}{
		{"missing service", dto.CreateBookingRequest{PacienteID: "pac-1", DataAgendamento: "2024-06-10T10:00"}, appErrors.ErrValidation},
		{"bad timestamp", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "amanhã"}, appErrors.ErrValidation},
		{"past start", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T07:30"}, appErrors.ErrValidation},
		{"unknown service", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "nope", DataAgendamento: "2024-06-10T10:00"}, appErrors.ErrNotFound},
		{"inactive service", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "antigo", DataAgendamento: "2024-06-10T10:00"}, appErrors.ErrNotFound},
		{"outside window", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T17:00"}, appErrors.ErrValidation},
		{"crosses window end", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "procedimento", DataAgendamento: "2024-06-10T16:30"}, appErrors.ErrValidation},
		{"off grid", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T10:10"}, appErrors.ErrValidation},
		{"weekend", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-15T10:00"}, appErrors.ErrValidation},
		{"exact overlap", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T11:00"}, appErrors.ErrConflict},
		{"partial overlap", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "procedimento", DataAgendamento: "2024-06-10T10:30"}, appErrors.ErrConflict},
		{"blackout", dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T15:30"}, appErrors.ErrConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), staff, tc.req)
			assertAppError(t, err, tc.want)
		})
	}
	assert.Len(t, f.agenda.bookings, 1)
	assert.Empty(t, f.events.changes)
	assert.Empty(t, f.notifier.sent)
}

func TestBookingServiceCreateBackToBack(t *testing.T) {
	f := newBookingFixture(t)
	f.agenda.seed(models.Booking{PatientID: "pac-9", ServiceID: "consulta", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingAgendado})

	_, err := f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T10:30"})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T11:30"})
	require.NoError(t, err)
}

func TestBookingServiceCreateReusesCancelledSlot(t *testing.T) {
	f := newBookingFixture(t)
	f.agenda.seed(models.Booking{PatientID: "pac-9", ServiceID: "consulta", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingCancelado})

	_, err := f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T11:00"})
	require.NoError(t, err)
}

func TestBookingServiceCreateConcurrentSameSlot(t *testing.T) {
	f := newBookingFixture(t)

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{
				PacienteID:      "pac-1",
				ServicoID:       "consulta",
				DataAgendamento: "2024-06-10T10:00",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, appErrors.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, f.agenda.blocking(), 1)
}

func TestBookingServiceCreateMapsExclusionViolation(t *testing.T) {
	f := newBookingFixture(t)
	f.agenda.seed(models.Booking{PatientID: "pac-9", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	f.agenda.skipOverlapCheck = true

	_, err := f.svc.Create(context.Background(), staff, dto.CreateBookingRequest{PacienteID: "pac-1", ServicoID: "consulta", DataAgendamento: "2024-06-10T10:00"})
	assertAppError(t, err, appErrors.ErrConflict)
	assert.Len(t, f.agenda.bookings, 1)
}

func TestBookingServiceReschedule(t *testing.T) {
	f := newBookingFixture(t)
	original := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingConfirmado, Notes: "retorno"})
	f.warm(t, "2024-06-10", "2024-06-11", "2024-06-12")

	updated, err := f.svc.Reschedule(context.Background(), patient, original.ID, dto.RescheduleBookingRequest{NovaData: "2024-06-11T14:00", Motivo: "viagem"})
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, models.BookingAgendado, updated.Status)
	assert.True(t, updated.StartAt.Equal(time.Date(2024, time.June, 11, 14, 0, 0, 0, brt)))
	assert.True(t, updated.EndAt.Equal(time.Date(2024, time.June, 11, 14, 30, 0, 0, brt)))
	assert.Contains(t, updated.Notes, "retorno\n[reagendado 10/06/2024 08:00] viagem")

	stored := f.agenda.get(original.ID)
	assert.True(t, stored.StartAt.Equal(updated.StartAt))
	assert.Len(t, f.agenda.bookings, 1)

	assert.Equal(t, [][]string{{"2024-06-10", "2024-06-11"}}, f.agenda.locks)
	assert.False(t, f.cached("2024-06-10"))
	assert.False(t, f.cached("2024-06-11"))
	assert.True(t, f.cached("2024-06-12"))

	require.Len(t, f.notifier.sent, 1)
	require.NotNil(t, f.notifier.sent[0].PreviousStartAt)
	assert.True(t, f.notifier.sent[0].PreviousStartAt.Equal(monday(10, 0)))
	assert.Equal(t, "viagem", f.notifier.sent[0].Reason)
}

func TestBookingServiceRescheduleOverlappingItself(t *testing.T) {
	f := newBookingFixture(t)
	original := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "procedimento", StartAt: monday(10, 0), EndAt: monday(11, 0), Status: models.BookingAgendado})

	updated, err := f.svc.Reschedule(context.Background(), staff, original.ID, dto.RescheduleBookingRequest{NovaData: "2024-06-10T10:30"})
	require.NoError(t, err)
	assert.True(t, updated.EndAt.Equal(monday(11, 30)))
	assert.Equal(t, [][]string{{"2024-06-10", "2024-06-10"}}, f.agenda.locks)
}

func TestBookingServiceRescheduleRejections(t *testing.T) {
	f := newBookingFixture(t)
	open := f.agenda.seed(models.Booking{ID: "open", PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	f.agenda.seed(models.Booking{ID: "other", PatientID: "pac-2", ServiceID: "consulta", StartAt: monday(14, 0), EndAt: monday(14, 30), Status: models.BookingAgendado})
	f.agenda.seed(models.Booking{ID: "cancelled", PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingCancelado})
	f.agenda.seed(models.Booking{ID: "past", PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(7, 0), EndAt: monday(7, 30), Status: models.BookingAgendado})

	_, err := f.svc.Reschedule(context.Background(), staff, "open", dto.RescheduleBookingRequest{NovaData: "2024-06-10T14:00"})
	assertAppError(t, err, appErrors.ErrConflict)

	_, err = f.svc.Reschedule(context.Background(), staff, "cancelled", dto.RescheduleBookingRequest{NovaData: "2024-06-10T15:00"})
	assertAppError(t, err, appErrors.ErrConflict)

	_, err = f.svc.Reschedule(context.Background(), staff, "past", dto.RescheduleBookingRequest{NovaData: "2024-06-10T15:00"})
	assertAppError(t, err, appErrors.ErrPastAction)

	_, err = f.svc.Reschedule(context.Background(), staff, "open", dto.RescheduleBookingRequest{NovaData: "2024-06-10T07:00"})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.Reschedule(context.Background(), staff, "open", dto.RescheduleBookingRequest{NovaData: "2024-06-10T20:00"})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.Reschedule(context.Background(), staff, "missing", dto.RescheduleBookingRequest{NovaData: "2024-06-10T15:00"})
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Reschedule(context.Background(), dto.Actor{UserID: "pac-2", Role: string(models.RolePaciente)}, "open", dto.RescheduleBookingRequest{NovaData: "2024-06-10T15:00"})
	assertAppError(t, err, appErrors.ErrNotFound)

	stored := f.agenda.get(open.ID)
	assert.True(t, stored.StartAt.Equal(monday(10, 0)))
	assert.Empty(t, f.events.changes)
}

func TestBookingServiceRescheduleServiceLookup(t *testing.T) {
	f := newBookingFixture(t)
	f.agenda.seed(models.Booking{ID: "legacy", PatientID: "pac-1", ServiceID: "antigo", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	f.agenda.seed(models.Booking{ID: "orphan", PatientID: "pac-1", ServiceID: "removido", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingAgendado})

	updated, err := f.svc.Reschedule(context.Background(), staff, "legacy", dto.RescheduleBookingRequest{NovaData: "2024-06-11T09:00"})
	require.NoError(t, err)
	assert.True(t, updated.EndAt.Equal(time.Date(2024, time.June, 11, 9, 30, 0, 0, brt)))

	_, err = f.svc.Reschedule(context.Background(), staff, "orphan", dto.RescheduleBookingRequest{NovaData: "2024-06-11T10:00"})
	assertAppError(t, err, appErrors.ErrNotFound)
	assert.True(t, f.agenda.get("orphan").StartAt.Equal(monday(11, 0)))
}

func TestBookingServiceCancel(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	f.warm(t, "2024-06-10")

	cancelled, err := f.svc.Cancel(context.Background(), patient, booking.ID, dto.CancelBookingRequest{Motivo: "imprevisto"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelado, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "imprevisto", *cancelled.CancelReason)
	assert.False(t, f.cached("2024-06-10"))
	assert.Empty(t, f.agenda.blocking())
	assert.Empty(t, f.reminders.scheduled)
	assert.Equal(t, []string{models.AuditActionBookingCancel}, f.audit.actions())

	_, err = f.svc.Cancel(context.Background(), patient, booking.ID, dto.CancelBookingRequest{Motivo: "de novo"})
	assertAppError(t, err, appErrors.ErrConflict)
}

func TestBookingServiceCancelPastBookingLeavesRowUnchanged(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(7, 0), EndAt: monday(7, 30), Status: models.BookingConfirmado})
	f.warm(t, "2024-06-10")

	_, err := f.svc.Cancel(context.Background(), staff, booking.ID, dto.CancelBookingRequest{Motivo: "tarde demais"})
	assertAppError(t, err, appErrors.ErrPastAction)

	stored := f.agenda.get(booking.ID)
	assert.Equal(t, models.BookingConfirmado, stored.Status)
	assert.Nil(t, stored.CancelReason)
	assert.True(t, f.cached("2024-06-10"))
	assert.Empty(t, f.events.changes)
}

func TestBookingServiceCancelValidation(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-2", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})

	_, err := f.svc.Cancel(context.Background(), staff, booking.ID, dto.CancelBookingRequest{})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.Cancel(context.Background(), patient, booking.ID, dto.CancelBookingRequest{Motivo: "não é meu"})
	assertAppError(t, err, appErrors.ErrNotFound)
	assert.Equal(t, models.BookingAgendado, f.agenda.get(booking.ID).Status)
}

func TestBookingServiceCancelSurvivesCacheAndBusFailures(t *testing.T) {
	f := newBookingFixture(t)
	f.events.err = errors.New("broker down")
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})

	_, err := f.svc.Cancel(context.Background(), staff, booking.ID, dto.CancelBookingRequest{Motivo: "paciente ligou"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelado, f.agenda.get(booking.ID).Status)
}

func TestBookingServiceConfirm(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	f.warm(t, "2024-06-10")

	confirmed, err := f.svc.Confirm(context.Background(), staff, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmado, confirmed.Status)
	assert.True(t, f.cached("2024-06-10"))

	_, err = f.svc.Confirm(context.Background(), staff, booking.ID)
	assertAppError(t, err, appErrors.ErrConflict)
}

func TestBookingServiceConfirmByToken(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})

	token, _, err := f.signer.Generate(booking.ID, ConfirmAction, time.Time{})
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmado, confirmed.Status)

	again, err := f.svc.ConfirmByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmado, again.Status)
	assert.Equal(t, []string{models.AuditActionBookingConfirm}, f.audit.actions())
	require.NotNil(t, f.audit.entries[0].UserID)
	assert.Equal(t, "pac-1", *f.audit.entries[0].UserID)

	wrongAction, _, err := f.signer.Generate(booking.ID, "cancelar", time.Time{})
	require.NoError(t, err)
	_, err = f.svc.ConfirmByToken(context.Background(), wrongAction)
	assertAppError(t, err, appErrors.ErrValidation)

	expired, _, err := f.signer.Generate(booking.ID, ConfirmAction, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = f.svc.ConfirmByToken(context.Background(), expired)
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = f.svc.ConfirmByToken(context.Background(), token+"x")
	assertAppError(t, err, appErrors.ErrValidation)
}

func TestBookingServiceMarkAttendance(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingConfirmado})

	_, err := f.svc.MarkAttendance(context.Background(), staff, booking.ID, models.BookingRealizado)
	assertAppError(t, err, appErrors.ErrValidation)

	f.svc.now = func() time.Time { return monday(10, 40) }
	_, err = f.svc.MarkAttendance(context.Background(), staff, booking.ID, models.BookingCancelado)
	assertAppError(t, err, appErrors.ErrValidation)

	done, err := f.svc.MarkAttendance(context.Background(), staff, booking.ID, models.BookingFaltou)
	require.NoError(t, err)
	assert.Equal(t, models.BookingFaltou, done.Status)
	assert.Len(t, f.agenda.blocking(), 1)

	_, err = f.svc.MarkAttendance(context.Background(), staff, booking.ID, models.BookingRealizado)
	assertAppError(t, err, appErrors.ErrConflict)
}

func TestBookingServiceListAndGet(t *testing.T) {
	f := newBookingFixture(t)
	mine := f.agenda.seed(models.Booking{PatientID: "pac-1", ServiceID: "consulta", StartAt: monday(10, 0), EndAt: monday(10, 30), Status: models.BookingAgendado})
	other := f.agenda.seed(models.Booking{PatientID: "pac-2", ServiceID: "consulta", StartAt: monday(11, 0), EndAt: monday(11, 30), Status: models.BookingCancelado})

	items, page, err := f.svc.List(context.Background(), patient, dto.ListBookingsQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalCount)

	items, _, err = f.svc.List(context.Background(), staff, dto.ListBookingsQuery{DataInicio: "2024-06-10", DataFim: "2024-06-10", Status: "cancelado"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, other.ID, items[0].ID)

	_, _, err = f.svc.List(context.Background(), staff, dto.ListBookingsQuery{Status: "perdido"})
	assertAppError(t, err, appErrors.ErrValidation)

	_, _, err = f.svc.List(context.Background(), staff, dto.ListBookingsQuery{DataInicio: "2024-06-12", DataFim: "2024-06-10"})
	assertAppError(t, err, appErrors.ErrValidation)

	detail, err := f.svc.Get(context.Background(), patient, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paciente pac-1", detail.PatientName)

	_, err = f.svc.Get(context.Background(), patient, other.ID)
	assertAppError(t, err, appErrors.ErrNotFound)
}
