package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
	"github.com/noah-isme/portal-agenda-api/pkg/jobs"
	"github.com/noah-isme/portal-agenda-api/pkg/signing"
)

const notificationJobType = "booking.notification"

// Message is a rendered patient notification.
type Message struct {
	Kind      string
	BookingID string
	To        string
	Phone     string
	Subject   string
	Body      string
}

// Notifier delivers a rendered message through some channel (e-mail, SMS, WhatsApp).
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log. It is the default channel until a provider is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification sent",
		zap.String("kind", msg.Kind),
		zap.String("booking_id", msg.BookingID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

type bookingDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.BookingDetail, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
	Handle(jobType string, h jobs.Handler)
}

// NotificationConfig tunes rendered links.
type NotificationConfig struct {
	Location       *time.Location
	ConfirmBaseURL string
}

// NotificationService renders booking notifications and hands them to the worker queue.
type NotificationService struct {
	bookings bookingDetailReader
	queue    jobQueue
	notifier Notifier
	signer   *signing.LinkSigner
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      NotificationConfig
}

// NewNotificationService wires the service and registers its job handler on queue.
func NewNotificationService(bookings bookingDetailReader, queue jobQueue, notifier Notifier, signer *signing.LinkSigner, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &NotificationService{bookings: bookings, queue: queue, notifier: notifier, signer: signer, metrics: metrics, logger: logger, cfg: cfg}
	if queue != nil {
		queue.Handle(notificationJobType, s.handleJob)
	}
	return s
}

// Dispatch queues a notification. A full queue drops the message with a warning.
func (s *NotificationService) Dispatch(_ context.Context, n models.BookingNotification) {
	if s == nil || s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: notificationJobType, Payload: n}); err != nil {
		s.metrics.RecordNotification(n.Kind, false)
		s.logger.Warn("notification not queued", zap.String("kind", n.Kind), zap.String("booking_id", n.BookingID), zap.Error(err))
	}
}

// Deliver renders and sends a notification synchronously. Reminder workers call it directly.
func (s *NotificationService) Deliver(ctx context.Context, n models.BookingNotification) error {
	detail, err := s.bookings.FindDetailByID(ctx, n.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("notification for missing booking skipped", zap.String("booking_id", n.BookingID))
			return nil
		}
		return fmt.Errorf("load booking %s: %w", n.BookingID, err)
	}
	if n.Kind == models.NotificationReminder && (!detail.Status.Open() || !detail.StartAt.Equal(n.StartAt)) {
		s.logger.Info("stale reminder skipped", zap.String("booking_id", n.BookingID), zap.String("status", string(detail.Status)))
		return nil
	}

	msg, err := s.render(n, detail)
	if err != nil {
		return err
	}
	err = s.notifier.Send(ctx, msg)
	s.metrics.RecordNotification(n.Kind, err == nil)
	return err
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.BookingNotification)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.Deliver(ctx, n)
}

func (s *NotificationService) render(n models.BookingNotification, detail *models.BookingDetail) (Message, error) {
	when := detail.StartAt.In(s.cfg.Location).Format("02/01/2006 às 15:04")
	msg := Message{
		Kind:      n.Kind,
		BookingID: detail.ID,
		To:        detail.PatientEmail,
		Phone:     detail.PatientPhone,
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Olá, %s.\n\n", detail.PatientName)
	switch n.Kind {
	case models.ChangeCreated:
		msg.Subject = "Agendamento registrado"
		fmt.Fprintf(&body, "Seu horário de %s foi agendado para %s.\n", detail.ServiceName, when)
	case models.ChangeRescheduled:
		msg.Subject = "Agendamento reagendado"
		if n.PreviousStartAt != nil {
			fmt.Fprintf(&body, "Seu horário de %s foi movido de %s para %s.\n", detail.ServiceName, n.PreviousStartAt.In(s.cfg.Location).Format("02/01/2006 às 15:04"), when)
		} else {
			fmt.Fprintf(&body, "Seu horário de %s foi movido para %s.\n", detail.ServiceName, when)
		}
	case models.ChangeCancelled:
		msg.Subject = "Agendamento cancelado"
		fmt.Fprintf(&body, "Seu horário de %s em %s foi cancelado.\n", detail.ServiceName, when)
		if n.Reason != "" {
			fmt.Fprintf(&body, "Motivo: %s\n", n.Reason)
		}
	case models.NotificationReminder:
		msg.Subject = "Lembrete de consulta"
		fmt.Fprintf(&body, "Lembramos que você tem %s em %s.\n", detail.ServiceName, when)
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	if n.Kind != models.ChangeCancelled && detail.Status == models.BookingAgendado {
		link, err := s.confirmLink(detail)
		if err != nil {
			return Message{}, err
		}
		if link != "" {
			fmt.Fprintf(&body, "\nConfirme sua presença: %s\n", link)
		}
	}
	msg.Body = body.String()
	return msg, nil
}

func (s *NotificationService) confirmLink(detail *models.BookingDetail) (string, error) {
	if s.signer == nil || s.cfg.ConfirmBaseURL == "" {
		return "", nil
	}
	token, _, err := s.signer.Generate(detail.ID, ConfirmAction, detail.StartAt)
	if err != nil {
		return "", fmt.Errorf("sign confirmation link: %w", err)
	}
	return strings.TrimRight(s.cfg.ConfirmBaseURL, "/") + "/" + token, nil
}
