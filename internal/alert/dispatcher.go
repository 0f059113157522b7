package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/metrics"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Dispatcher fans alerts out to every configured sink. Deliveries run in the
// background so a slow channel never delays the caller.
type Dispatcher struct {
	sinks   []contract.AlertSink
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher over sinks. Each delivery is bounded by timeout.
func NewDispatcher(sinks []contract.AlertSink, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = contract.DefaultAlertTimeout
	}
	return &Dispatcher{sinks: sinks, timeout: timeout}
}

// Channels lists the channels of the configured sinks.
func (d *Dispatcher) Channels() []schema.AlertChannel {
	out := make([]schema.AlertChannel, 0, len(d.sinks))
	for _, s := range d.sinks {
		out = append(out, s.Name())
	}
	return out
}

// Raise delivers alert to every sink. Failures are logged and counted, never returned.
func (d *Dispatcher) Raise(ctx context.Context, alert schema.Alert) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	// Deliveries outlive a cancelled caller; Close waits for them.
	base := context.WithoutCancel(ctx)
	for _, sink := range d.sinks {
		d.wg.Go(func() {
			sendCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()
			d.deliver(sendCtx, sink, alert)
		})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink contract.AlertSink, alert schema.Alert) {
	channel := string(sink.Name())
	if err := send(ctx, sink, alert); err != nil {
		metrics.AlertsTotal.WithLabelValues(channel, metrics.OutcomeFailure).Inc()
		contract.Logger().Warn("alert delivery failed",
			zap.String("channel", channel),
			zap.String("alert_id", alert.ID),
			zap.Error(fmt.Errorf("%w: %w", contract.ErrAlertDelivery, err)),
		)
		return
	}
	metrics.AlertsTotal.WithLabelValues(channel, metrics.OutcomeSuccess).Inc()
	contract.Logger().Debug("alert delivered", zap.String("channel", channel), zap.String("alert_id", alert.ID))
}

// send calls the sink, turning a panic into an error.
func send(ctx context.Context, sink contract.AlertSink, alert schema.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Send(ctx, alert)
}

// Close waits for in-flight deliveries and then closes every sink.
func (d *Dispatcher) Close() error {
	d.wg.Wait()
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
