package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"mojster_trust/internal/usecase/interfaces"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookSink posts state transition events to an external webhook so other
// marketplace services (matching, messaging) can react to them. Delivery is
// best effort: transitions are already committed when the sink runs, so a
// failed POST is logged and reported but never rolled back.
type WebhookSink struct {
	client     *resty.Client
	webhookURL string
}

var _ interfaces.INotificationSink = (*WebhookSink)(nil)

// NewWebhookSinkFromEnv reads NOTIFY_WEBHOOK_URL. When the variable is unset
// the sink is disabled and NotifyTransition becomes a no-op, which keeps
// local and test setups free of outbound traffic.
func NewWebhookSinkFromEnv() *WebhookSink {
	url := os.Getenv("NOTIFY_WEBHOOK_URL")
	if url == "" {
		zap.S().Infof("[notify][sink] NOTIFY_WEBHOOK_URL not set, notifications disabled")
		return &WebhookSink{}
	}

	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &WebhookSink{client: client, webhookURL: url}
}

type transitionEvent struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
}

func (s *WebhookSink) NotifyTransition(ctx context.Context, entityType, entityID, status string) error {
	if s == nil || s.webhookURL == "" {
		return nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(transitionEvent{
			EntityType: entityType,
			EntityID:   entityID,
			Status:     status,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		}).
		Post(s.webhookURL)
	if err != nil {
		zap.S().Warnf("[notify][sink] webhook delivery failed entity=%s/%s status=%s err=%v", entityType, entityID, status, err)
		return err
	}
	if resp.IsError() {
		zap.S().Warnf("[notify][sink] webhook rejected entity=%s/%s status=%s http=%d", entityType, entityID, status, resp.StatusCode())
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}
