// Package worker delivers budget alert notifications consumed from the
// message queue.
package worker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	applog "pennywise/internal/log"
)

// defaultQuietPeriod suppresses repeat alerts for the same user. The
// publishing side already gates per session, but several sessions on
// different devices can each fire once.
const defaultQuietPeriod = time.Hour

// AlertWorker turns budget alert messages into user-facing
// notifications written to out.
type AlertWorker struct {
	out         io.Writer
	logger      *applog.Logger
	quietPeriod time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewAlertWorker(out io.Writer, logger *applog.Logger) *AlertWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AlertWorker{
		out:         out,
		logger:      logger.WithComponent(applog.ComponentWorker),
		quietPeriod: defaultQuietPeriod,
		lastSent:    map[string]time.Time{},
	}
}

// HandleAlert processes a single budget alert message from AMQP
func (w *AlertWorker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.Username == "" {
		return fmt.Errorf("alert message without username")
	}

	w.mu.Lock()
	last, seen := w.lastSent[msg.Username]
	if seen && time.Since(last) < w.quietPeriod {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Suppressing repeat alert",
			applog.FieldUsername, msg.Username)
		return nil
	}
	w.lastSent[msg.Username] = time.Now()
	w.mu.Unlock()

	notification := fmt.Sprintf(
		"Budget Alert for %s: you have used %d%% of your monthly budget (%s of %s)\n",
		msg.Username,
		msg.PercentUsed,
		core.FormatCurrency(msg.TotalSpent),
		core.FormatCurrency(msg.BudgetLimit),
	)

	if _, err := fmt.Fprint(w.out, notification); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	w.logger.InfoContext(ctx, "Delivered budget alert",
		applog.FieldUsername, msg.Username,
		"percent_used", msg.PercentUsed)
	return nil
}
