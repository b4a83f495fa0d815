package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/target/obd-dialer/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.Alert{
		ID:       "a-1",
		Category: "targetFileDirectory",
		Subject:  "/var/obd",
		Message:  "mkdirs() failed",
		Metadata: map[string]string{"subject": "ignored", "host": "dialer-1"},
	})

	payloadSection, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if payloadSection["severity"] != notify.SeverityCritical {
		t.Fatalf("expected default severity, got %v", payloadSection["severity"])
	}
	if payloadSection["source"] != "obd-dialer" {
		t.Fatalf("expected default source, got %v", payloadSection["source"])
	}
	if payloadSection["component"] != "target-file" {
		t.Fatalf("expected default component, got %v", payloadSection["component"])
	}
	if payloadSection["summary"] != "targetFileDirectory: /var/obd: mkdirs() failed" {
		t.Fatalf("unexpected summary %v", payloadSection["summary"])
	}

	custom, ok := payloadSection["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	if custom["subject"] != "/var/obd" {
		t.Fatalf("metadata must not override core fields, got %v", custom["subject"])
	}
	if custom["host"] != "dialer-1" {
		t.Fatalf("expected metadata to be merged, got %v", custom["host"])
	}
	if event["dedup_key"] != "targetFileDirectory:/var/obd" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}
}

func TestBuildEventSeverityMapping(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[string]string{"high": "error", "medium": "warning", "low": "warning", "info": "info"}
	for in, want := range cases {
		payload, _ := client.buildEvent(notify.Alert{Severity: in})["payload"].(map[string]any)
		if payload["severity"] != want {
			t.Errorf("severity %q: got %v want %s", in, payload["severity"], want)
		}
	}
}

func TestBuildEventTruncatesSummary(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, _ := client.buildEvent(notify.Alert{Message: strings.Repeat("x", 2000)})["payload"].(map[string]any)
	summary, _ := payload["summary"].(string)
	if len(summary) != maxSummaryLen {
		t.Fatalf("expected summary truncated to %d, got %d", maxSummaryLen, len(summary))
	}
}

func TestSendAlertPostsToEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendAlert(context.Background(), notify.Alert{Category: "targetFile", Subject: "f"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["routing_key"] != "rk" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestSendAlertSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"invalid event"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = client.SendAlert(context.Background(), notify.Alert{Subject: "f"})
	if err == nil || !strings.Contains(err.Error(), "invalid event") {
		t.Fatalf("expected api error, got %v", err)
	}
}
