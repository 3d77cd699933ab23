package service

import (
	"context"
	"encoding/json"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/pkg/errors"
	"cfp-backend/pkg/redis"

	"go.uber.org/zap"
)

// Notifier dispatches one outcome notification for a proposal. The
// delivery transport itself (mail templates, workers) is outside the
// engine; implementations return a DeliveryError whose transient flag
// tells the publish flow whether a retry can succeed.
type Notifier interface {
	Notify(ctx context.Context, proposal *domain.Proposal, outcome domain.DeliberationStatus) error
}

// NotificationJob is the payload handed to the delivery worker
type NotificationJob struct {
	ProposalID string                    `json:"proposal_id"`
	EventID    string                    `json:"event_id"`
	Title      string                    `json:"title"`
	Outcome    domain.DeliberationStatus `json:"outcome"`
	Speakers   []domain.Speaker          `json:"speakers"`
	QueuedAt   time.Time                 `json:"queued_at"`
}

// QueueNotifier enqueues notification jobs onto a Redis list consumed by
// the delivery worker. Enqueue failures are transient: the caller's
// transaction rolls back, the sent-flag stays false and the proposal is
// picked up again on the next publish.
type QueueNotifier struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewQueueNotifier creates a Redis-list-backed notifier
func NewQueueNotifier(redisClient *redis.Client, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{redis: redisClient, logger: logger}
}

// Notify enqueues one job for the proposal's outcome
func (n *QueueNotifier) Notify(ctx context.Context, proposal *domain.Proposal, outcome domain.DeliberationStatus) error {
	if n.redis == nil {
		return errors.NewDeliveryError("notification queue is not configured", nil, true)
	}

	job := NotificationJob{
		ProposalID: proposal.ID,
		EventID:    proposal.EventID,
		Title:      proposal.Title,
		Outcome:    outcome,
		Speakers:   proposal.Speakers,
		QueuedAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return errors.NewDeliveryError("failed to encode notification job", err, false)
	}

	if err := n.redis.LPush(ctx, n.redis.KeyBuilder.KeyNotifications(), payload); err != nil {
		return errors.NewDeliveryError("failed to enqueue notification", err, true)
	}

	n.logger.Info("Notification enqueued",
		zap.String("proposal_id", proposal.ID),
		zap.String("outcome", string(outcome)))
	return nil
}
