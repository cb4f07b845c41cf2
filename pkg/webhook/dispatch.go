package webhook

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ccollicutt/testwise/pkg/config"
	"github.com/ccollicutt/testwise/pkg/output"
)

// ShouldFire determines if a webhook should fire based on trigger and failures.
func ShouldFire(trigger config.WebhookTrigger, hasFailures bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		// on_failures, also the default
		return hasFailures
	}
}

// Result is the outcome of one webhook delivery.
type Result struct {
	Name     string
	Skipped  bool
	Response *Response
}

// Dispatch sends report to every hook whose trigger matches. Every hook is
// attempted; delivery failures are logged and returned together.
func (c *Client) Dispatch(ctx context.Context, report *output.Report, hooks []config.WebhookConfig, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs *multierror.Error
	results := make([]Result, 0, len(hooks))

	for _, wh := range hooks {
		name := wh.DisplayName()
		if !ShouldFire(wh.Trigger, report.HasFailures()) {
			logger.Debug("webhook skipped", zap.String("webhook", name), zap.String("trigger", string(wh.Trigger)))
			results = append(results, Result{Name: name, Skipped: true})
			continue
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})
		results = append(results, Result{Name: name, Response: resp})

		if resp.Success() {
			logger.Info("webhook sent",
				zap.String("webhook", name),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration))
			continue
		}

		err := resp.Error
		if err == nil {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		logger.Warn("webhook failed", zap.String("webhook", name), zap.Error(err))
		errs = multierror.Append(errs, fmt.Errorf("webhook %s: %w", name, err))
	}

	return results, errs.ErrorOrNil()
}
