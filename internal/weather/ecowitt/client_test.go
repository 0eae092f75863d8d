package ecowitt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCurrentParsesStringValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/real_time" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("application_key") != "app" {
			t.Fatal("expected application_key in query")
		}
		if got := r.URL.Query().Get("wind_speed_unitid"); got != "8" {
			t.Fatalf("expected knots unit id 8, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 0,
			"msg": "success",
			"data": {
				"wind": {
					"wind_speed": {"value": "18.3"},
					"wind_gust": {"value": "22.1"},
					"wind_direction": {"value": "105"}
				}
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient("app", "api", "AA:BB", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	reading, err := client.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if reading.Speed == nil || *reading.Speed != 18.3 {
		t.Fatalf("expected speed 18.3, got %v", reading.Speed)
	}
	if reading.Gust == nil || *reading.Gust != 22.1 {
		t.Fatalf("expected gust 22.1, got %v", reading.Gust)
	}
	if reading.Direction == nil || *reading.Direction != 105 {
		t.Fatalf("expected direction 105, got %v", reading.Direction)
	}
	if reading.TakenAt.IsZero() {
		t.Fatal("expected takenAt to be set")
	}
}

func TestCurrentAPIErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 40010, "msg": "invalid key", "data": {}}`))
	}))
	defer server.Close()

	client, _ := NewClient("app", "api", "AA:BB", WithBaseURL(server.URL), WithAttempts(1))
	if _, err := client.Current(context.Background()); err == nil {
		t.Fatal("expected error for non-zero api code")
	}
}

func TestCurrentRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{
			"code": 0, "msg": "success",
			"data": {"wind": {
				"wind_speed": {"value": "12"},
				"wind_gust": {"value": "14"},
				"wind_direction": {"value": "90"}
			}}
		}`))
	}))
	defer server.Close()

	client, _ := NewClient("app", "api", "AA:BB", WithBaseURL(server.URL))
	reading, err := client.Current(context.Background())
	if err != nil {
		t.Fatalf("expected third attempt to succeed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if reading.Speed == nil || *reading.Speed != 12 {
		t.Fatalf("unexpected reading %+v", reading)
	}
}

func TestCurrentMissingValuesAreNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"code": 0, "msg": "success",
			"data": {"wind": {
				"wind_speed": {"value": "16"},
				"wind_gust": {"value": ""},
				"wind_direction": {"value": "n/a"}
			}}
		}`))
	}))
	defer server.Close()

	client, _ := NewClient("app", "api", "AA:BB", WithBaseURL(server.URL), WithAttempts(1))
	reading, err := client.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if reading.Gust != nil || reading.Direction != nil {
		t.Fatal("expected unparsable values to stay nil")
	}
	if reading.Speed == nil {
		t.Fatal("expected speed to parse")
	}
}
