package worker

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"pennywise/internal/amqp"
)

func TestHandleAlertWritesNotification(t *testing.T) {
	var out bytes.Buffer
	w := NewAlertWorker(&out, nil)

	msg := amqp.NewBudgetAlertMessage("ada@example.com", 92, 460, 500)
	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"ada@example.com", "92%", "$460.00", "$500.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("notification %q missing %q", got, want)
		}
	}
}

func TestHandleAlertSuppressesRepeats(t *testing.T) {
	var out bytes.Buffer
	w := NewAlertWorker(&out, nil)

	msg := amqp.NewBudgetAlertMessage("ada@example.com", 85, 425, 500)
	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("first HandleAlert() error = %v", err)
	}
	first := out.Len()

	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("second HandleAlert() error = %v", err)
	}
	if out.Len() != first {
		t.Error("repeat alert within the quiet period should not be delivered")
	}

	// A different user is never suppressed.
	other := amqp.NewBudgetAlertMessage("bob@example.com", 90, 450, 500)
	if err := w.HandleAlert(context.Background(), other); err != nil {
		t.Fatalf("HandleAlert() for other user error = %v", err)
	}
	if out.Len() == first {
		t.Error("alert for a different user should be delivered")
	}
}

func TestHandleAlertAfterQuietPeriod(t *testing.T) {
	var out bytes.Buffer
	w := NewAlertWorker(&out, nil)
	w.quietPeriod = 10 * time.Millisecond

	msg := amqp.NewBudgetAlertMessage("ada@example.com", 85, 425, 500)
	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}
	first := out.Len()

	time.Sleep(20 * time.Millisecond)
	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}
	if out.Len() == first {
		t.Error("alert after the quiet period should be delivered")
	}
}

func TestHandleAlertRejectsMissingUsername(t *testing.T) {
	w := NewAlertWorker(&bytes.Buffer{}, nil)
	if err := w.HandleAlert(context.Background(), &amqp.BudgetAlertMessage{}); err == nil {
		t.Error("HandleAlert() should fail without a username")
	}
}
