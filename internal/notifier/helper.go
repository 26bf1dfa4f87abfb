package notifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/config"
	"webnotifier/internal/models"
)

const sendTimeout = 30 * time.Second

// NotificationHelper wraps the EmailNotifier with the notification
// configuration so call sites only decide what happened, not whether and
// how to deliver it. A helper with a nil notifier swallows all events.
type NotificationHelper struct {
	notifier     *EmailNotifier
	cfg          config.NotificationConfig
	contextLines int
	logger       zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(notifier *EmailNotifier, cfg config.NotificationConfig, contextLines int, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		notifier:     notifier,
		cfg:          cfg,
		contextLines: contextLines,
		logger:       logger.With().Str("component", "NotificationHelper").Logger(),
	}
}

// NotifyChange sends a detected-change notification if enabled.
func (nh *NotificationHelper) NotifyChange(ctx context.Context, event models.PageChangeEvent) {
	if nh == nil || nh.notifier == nil || !nh.cfg.NotifyOnChange {
		return
	}
	nh.deliver(ctx, FormatChangeNotification(event, nh.cfg, nh.contextLines))
}

// NotifyFailure sends a fetch-failure notification if enabled.
func (nh *NotificationHelper) NotifyFailure(ctx context.Context, event models.FetchFailureEvent) {
	if nh == nil || nh.notifier == nil || !nh.cfg.NotifyOnFailure {
		return
	}
	nh.deliver(ctx, FormatFetchFailureNotification(event, nh.cfg))
}

// NotifyDaemonStatus sends a start/stop notification if enabled.
func (nh *NotificationHelper) NotifyDaemonStatus(ctx context.Context, status string, watchedURLs []string) {
	if nh == nil || nh.notifier == nil || !nh.cfg.NotifyOnStartStop {
		return
	}
	nh.deliver(ctx, FormatDaemonStatusNotification(status, watchedURLs, nh.cfg))
}

func (nh *NotificationHelper) deliver(ctx context.Context, msg EmailMessage) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := nh.notifier.Send(sendCtx, msg); err != nil {
		// Delivery failures must never break the polling loop.
		nh.logger.Error().Err(err).Str("subject", msg.Subject).Msg("Notification delivery failed")
	}
}
