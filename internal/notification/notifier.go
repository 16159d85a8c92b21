// Package notification delivers down/recovery alerts. The checker enqueues
// alert commands; a notifier goroutine resolves the owner, applies plan
// gating and attempts delivery, so the check pipeline never depends on
// transport availability.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"statusping/internal/models"
	"statusping/internal/plans"
)

// Sender delivers one dual-format message to a recipient. Failures are
// reported to the caller but must not have side effects beyond the send.
type Sender interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// Kind distinguishes down alerts from recovery alerts.
type Kind int

// Alert kinds
const (
	KindDown Kind = iota
	KindRecovery
)

func (k Kind) String() string {
	if k == KindRecovery {
		return "recovery"
	}
	return "down"
}

// Alert is one queued alert command.
type Alert struct {
	Monitor      models.Monitor
	Kind         Kind
	ErrorMessage string        // down alerts
	Downtime     time.Duration // recovery alerts
}

// Notifier consumes queued alerts and sends plan-gated email notifications.
// Every alert is logged even without a configured transport; delivery
// failures are logged and never propagated.
type Notifier struct {
	db     *gorm.DB
	sender Sender // optional, may be nil
	queue  chan Alert
	done   chan struct{}
	logger *zap.Logger
}

// New creates a new Notifier. A nil sender means alerts are logged only.
func New(db *gorm.DB, sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{
		db:     db,
		sender: sender,
		queue:  make(chan Alert, 256),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start launches the consumer goroutine.
func (n *Notifier) Start() {
	go func() {
		defer close(n.done)
		for alert := range n.queue {
			n.dispatch(context.Background(), alert)
		}
	}()
}

// Stop drains the queue and waits for the consumer to finish.
func (n *Notifier) Stop() {
	close(n.queue)
	<-n.done
}

// MonitorDown enqueues a down alert for the monitor's owner.
func (n *Notifier) MonitorDown(m models.Monitor, errorMessage string) {
	n.enqueue(Alert{Monitor: m, Kind: KindDown, ErrorMessage: errorMessage})
}

// MonitorRecovered enqueues a recovery alert with the measured downtime.
func (n *Notifier) MonitorRecovered(m models.Monitor, downtime time.Duration) {
	n.enqueue(Alert{Monitor: m, Kind: KindRecovery, Downtime: downtime})
}

func (n *Notifier) enqueue(alert Alert) {
	select {
	case n.queue <- alert:
	default:
		n.logger.Warn("alert queue full, dropping alert",
			zap.String("monitor", alert.Monitor.Name),
			zap.String("kind", alert.Kind.String()))
	}
}

func (n *Notifier) dispatch(ctx context.Context, alert Alert) {
	var user models.User
	if err := n.db.First(&user, "id = ?", alert.Monitor.UserID).Error; err != nil {
		n.logger.Error("alert dropped, owner lookup failed",
			zap.String("monitor", alert.Monitor.Name),
			zap.Error(err))
		return
	}

	if !plans.ForPlan(user.Plan).Has(plans.FeatureEmailAlerts) {
		return
	}

	// Always record the alert, transport or not.
	n.logger.Info("alert",
		zap.String("kind", alert.Kind.String()),
		zap.String("to", user.Email),
		zap.String("monitor", alert.Monitor.Name),
		zap.String("url", alert.Monitor.URL),
		zap.String("error", alert.ErrorMessage),
		zap.Duration("downtime", alert.Downtime))

	if n.sender == nil {
		return
	}

	subject, textBody, htmlBody := buildMessage(alert)
	if err := n.sender.Send(ctx, user.Email, subject, textBody, htmlBody); err != nil {
		n.logger.Error("failed to send alert email",
			zap.String("to", user.Email),
			zap.Error(err))
		return
	}

	n.logger.Info("alert email sent", zap.String("to", user.Email))
}
