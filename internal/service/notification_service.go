package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/pkg/jobs"
)

// NotificationKind labels what a notification is about.
type NotificationKind string

const (
	NotificationRegistration NotificationKind = "registration"
	NotificationResult       NotificationKind = "result"
	NotificationAdvancement  NotificationKind = "advancement"
	NotificationSession      NotificationKind = "session"
)

// Notification is one message destined for a user.
type Notification struct {
	UserID  string           `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	SentAt  time.Time        `json:"sent_at"`
}

// NotificationSink delivers a notification to its channel: email, in-app
// feed, or a log in development.
type NotificationSink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the application log. Used when no real
// delivery channel is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the notification.
func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	s.logger.Info("notification",
		zap.String("user_id", n.UserID),
		zap.String("kind", string(n.Kind)),
		zap.String("message", n.Message))
	return nil
}

// NotificationService dispatches notifications through a background worker
// pool so registration and advancement flows never block on delivery.
type NotificationService struct {
	dispatcher *jobs.Dispatcher[Notification]
	logger     *zap.Logger
}

// NewNotificationService builds the service and its dispatcher. Call Start
// before enqueueing and Stop on shutdown.
func NewNotificationService(sink NotificationSink, opts jobs.Options, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	return &NotificationService{
		dispatcher: jobs.NewDispatcher[Notification]("notifications", sink.Deliver, opts),
		logger:     logger,
	}
}

// Start launches the dispatcher workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.dispatcher.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if s == nil {
		return
	}
	s.dispatcher.Stop()
}

// Enqueue submits a notification for asynchronous delivery. Failure to
// enqueue is logged, never surfaced; notifications are best effort.
func (s *NotificationService) Enqueue(n Notification) {
	if s == nil {
		return
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	if err := s.dispatcher.Dispatch(n); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}
