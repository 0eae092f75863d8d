package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	alertapp "labajada-cloud/internal/alerting/application"
	alerting "labajada-cloud/internal/alerting/domain"
	"labajada-cloud/internal/wind"
)

func TestWebhookChannelSend(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	if err := channel.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if received.Text.Content != "hello" {
		t.Fatalf("expected content hello, got %q", received.Text.Content)
	}
}

func TestWebhookChannelNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, _ := NewWebhookChannel(server.URL)
	if err := channel.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestChannelNotifierRendersEvent(t *testing.T) {
	var mu sync.Mutex
	var contents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		contents = append(contents, payload.Text.Content)
		mu.Unlock()
	}))
	defer server.Close()

	channel, _ := NewWebhookChannel(server.URL)
	notifier := NewChannelNotifier(channel, zerolog.Nop())
	speed := 21.0
	notifier.Notify(context.Background(), alertapp.AlertEvent{
		Type: "sent",
		Alert: alerting.Alert{
			Type:  alerting.ConditionEpic,
			Title: "👑 ¡ÉPICO!",
			Body:  "21 kts del ESE",
		},
		Wind: wind.Reading{Speed: &speed},
		Sent: 3,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(contents) != 1 {
		t.Fatalf("expected 1 webhook call, got %d", len(contents))
	}
	for _, fragment := range []string{"ÉPICO", "21 kts", "enviados: 3"} {
		if !strings.Contains(contents[0], fragment) {
			t.Fatalf("expected content to contain %q, got %q", fragment, contents[0])
		}
	}
}

type recordingNotifier struct {
	events []alertapp.AlertEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event alertapp.AlertEvent) {
	r.events = append(r.events, event)
}

func TestMultiNotifierFanOut(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	multi := NewMultiNotifier(first, nil, second)

	multi.Notify(context.Background(), alertapp.AlertEvent{Type: "sent"})
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected both notifiers called, got %d and %d", len(first.events), len(second.events))
	}
}
