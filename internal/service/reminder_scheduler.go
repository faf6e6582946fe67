package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

// TypeBookingReminder is the asynq task type of day-before reminders.
const TypeBookingReminder = "agendamento:lembrete"

// ReminderPayload is the body of a reminder task.
type ReminderPayload struct {
	BookingID string    `json:"booking_id"`
	PatientID string    `json:"patient_id"`
	ServiceID string    `json:"service_id"`
	StartAt   time.Time `json:"start_at"`
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqReminderScheduler plans reminders as delayed asynq tasks.
type AsynqReminderScheduler struct {
	client   taskEnqueuer
	leadTime time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderScheduler constructs a scheduler firing leadTime before each booking.
func NewReminderScheduler(client taskEnqueuer, leadTime time.Duration, logger *zap.Logger) *AsynqReminderScheduler {
	if leadTime <= 0 {
		leadTime = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqReminderScheduler{client: client, leadTime: leadTime, logger: logger, now: time.Now}
}

// Schedule enqueues the reminder of booking. A booking starting within the lead time is reminded right away.
// The task id embeds the start so a rescheduled booking gets a fresh reminder.
func (s *AsynqReminderScheduler) Schedule(ctx context.Context, booking models.Booking) error {
	now := s.now()
	if !booking.StartAt.After(now) {
		return nil
	}
	task, opts, err := NewReminderTask(ReminderPayload{
		BookingID: booking.ID,
		PatientID: booking.PatientID,
		ServiceID: booking.ServiceID,
		StartAt:   booking.StartAt,
	}, booking.StartAt.Add(-s.leadTime), now)
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue reminder for %s: %w", booking.ID, err)
	}
	s.logger.Debug("reminder scheduled", zap.String("booking_id", booking.ID), zap.String("task_id", info.ID), zap.Time("process_at", info.NextProcessAt))
	return nil
}

// NewReminderTask builds the task and its options. fireAt in the past is clamped to now.
func NewReminderTask(payload ReminderPayload, fireAt, now time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	if fireAt.Before(now) {
		fireAt = now
	}
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(fmt.Sprintf("lembrete:%s:%d", payload.BookingID, payload.StartAt.Unix())),
		asynq.MaxRetry(5),
		asynq.Retention(48 * time.Hour),
	}
	return asynq.NewTask(TypeBookingReminder, b), opts, nil
}

type reminderDeliverer interface {
	Deliver(ctx context.Context, n models.BookingNotification) error
}

// NewReminderHandler returns the asynq handler used by the notification worker.
func NewReminderHandler(deliverer reminderDeliverer, logger *zap.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		err := deliverer.Deliver(ctx, models.BookingNotification{
			Kind:      models.NotificationReminder,
			BookingID: p.BookingID,
			PatientID: p.PatientID,
			ServiceID: p.ServiceID,
			StartAt:   p.StartAt,
		})
		if err != nil {
			logger.Warn("reminder delivery failed", zap.String("booking_id", p.BookingID), zap.Error(err))
		}
		return err
	}
}
