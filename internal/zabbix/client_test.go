package zabbix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/linnemanlabs/herald/internal/event"
)

const problemRecord = `{
	"eventid": "101",
	"name": "High CPU",
	"severity": "5",
	"clock": "1767705600",
	"opdata": "97%",
	"r_eventid": "0",
	"hosts": [{"host": "acme-srv-01", "name": "ACME-SRV-01"}],
	"relatedObject": {"description": "CPU load too high"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-token", nil)
}

func TestActiveProblems(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotReq rpcRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":[` + problemRecord + `],"id":1}`))
	})

	events, err := c.ActiveProblems(context.Background(), 2*time.Hour, 4)
	if err != nil {
		t.Fatalf("ActiveProblems: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotReq.Method != "event.get" {
		t.Errorf("method = %q, want event.get", gotReq.Method)
	}

	params, ok := gotReq.Params.(map[string]any)
	if !ok {
		t.Fatalf("params have unexpected shape: %T", gotReq.Params)
	}
	if params["value"] != float64(1) {
		t.Errorf("params.value = %v, want 1", params["value"])
	}
	if params["acknowledged"] != false {
		t.Errorf("params.acknowledged = %v, want false", params["acknowledged"])
	}
	if got, want := params["severities"], []any{float64(4), float64(5)}; !reflect.DeepEqual(got, want) {
		t.Errorf("params.severities = %v, want %v", got, want)
	}
	wantFrom := time.Now().Add(-2 * time.Hour).Unix()
	if from, ok := params["time_from"].(float64); !ok || int64(from) < wantFrom-5 || int64(from) > wantFrom+5 {
		t.Errorf("params.time_from = %v, want about %d", params["time_from"], wantFrom)
	}

	want := []event.RawEvent{{
		EventID:         "101",
		Host:            "ACME-SRV-01",
		Severity:        5,
		Clock:           1767705600,
		Name:            "High CPU",
		Description:     "CPU load too high",
		OpData:          "97%",
		RecoveryEventID: "0",
	}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}
}

func TestActiveProblems_ZeroMinSeverityOmitsFilter(t *testing.T) {
	t.Parallel()

	var gotReq rpcRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":[],"id":1}`))
	})

	if _, err := c.ActiveProblems(context.Background(), time.Hour, 0); err != nil {
		t.Fatalf("ActiveProblems: %v", err)
	}

	params := gotReq.Params.(map[string]any)
	if _, ok := params["severities"]; ok {
		t.Error("severities filter present for minSeverity 0")
	}
}

func TestActiveProblems_APIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"bad token"},"id":1}`))
	})

	_, err := c.ActiveProblems(context.Background(), time.Hour, 4)
	if err == nil {
		t.Fatal("expected error for rpc error response")
	}
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error type = %T, want *rpcError", err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("code = %d, want -32602", rpcErr.Code)
	}
}

func TestActiveProblems_HTTPError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	})

	if _, err := c.ActiveProblems(context.Background(), time.Hour, 4); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestActiveProblems_MalformedBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	if _, err := c.ActiveProblems(context.Background(), time.Hour, 4); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestActiveProblems_SkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	records := `[
		` + problemRecord + `,
		{"eventid": "", "severity": "5", "clock": "1", "hosts": [{"name": "X-1"}]},
		{"eventid": "103", "severity": "5", "clock": "1", "hosts": []},
		{"eventid": "104", "severity": "high", "clock": "1", "hosts": [{"name": "X-1"}]},
		{"eventid": "105", "severity": "5", "clock": "later", "hosts": [{"name": "X-1"}]}
	]`
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":` + records + `,"id":1}`))
	})

	events, err := c.ActiveProblems(context.Background(), time.Hour, 4)
	if err != nil {
		t.Fatalf("ActiveProblems: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "101" {
		t.Errorf("events = %+v, want only the well-formed record", events)
	}
}

func TestActiveProblems_ContextCancelled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":[],"id":1}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ActiveProblems(ctx, time.Hour, 4); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
