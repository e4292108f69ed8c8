// Package zabbix is the event source client. It speaks the JSON-RPC
// event.get API and normalizes the returned records into event.RawEvent.
package zabbix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/herald/internal/event"
)

const httpTimeout = 30 * time.Second

// Client calls a Zabbix server's JSON-RPC API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a Zabbix API client authenticated with a bearer token.
func New(endpoint, token string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("zabbix api error %d: %s (%s)", e.Code, e.Message, e.Data)
}

// rawProblem mirrors the wire shape of one event.get record. Zabbix encodes
// numbers as strings.
type rawProblem struct {
	EventID  string `json:"eventid"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Clock    string `json:"clock"`
	OpData   string `json:"opdata"`
	REventID string `json:"r_eventid"`
	Hosts    []struct {
		Host string `json:"host"`
		Name string `json:"name"`
	} `json:"hosts"`
	RelatedObject struct {
		Description string `json:"description"`
	} `json:"relatedObject"`
}

// ActiveProblems fetches unacknowledged problem events raised within the
// lookback window, filtered to severities >= minSeverity (zero fetches all),
// and normalizes them. Records missing an event ID or host are skipped
// individually; they never abort the batch.
func (c *Client) ActiveProblems(ctx context.Context, lookback time.Duration, minSeverity int) ([]event.RawEvent, error) {
	params := map[string]any{
		"output":              "extend",
		"time_from":           time.Now().Add(-lookback).Unix(),
		"sortfield":           []string{"clock", "eventid"},
		"sortorder":           "DESC",
		"selectHosts":         []string{"host", "name"},
		"selectRelatedObject": []string{"description", "expression"},
		"acknowledged":        false,
		"value":               1, // problems only, recoveries are referenced via r_eventid
	}
	if minSeverity > 0 {
		var sevs []int
		for s := minSeverity; s <= event.SeverityCritical; s++ {
			sevs = append(sevs, s)
		}
		params["severities"] = sevs
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "event.get",
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("zabbix: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zabbix: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("zabbix: event.get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zabbix: event.get returned %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp struct {
		Result []rawProblem `json:"result"`
		Error  *rpcError    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("zabbix: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	events := make([]event.RawEvent, 0, len(rpcResp.Result))
	for _, r := range rpcResp.Result {
		ev, ok := normalize(r)
		if !ok {
			c.logger.Warn(ctx, "skipping malformed event record", "eventid", r.EventID)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalize converts one wire record. A record is malformed when it lacks an
// event ID or a host.
func normalize(r rawProblem) (event.RawEvent, bool) {
	if r.EventID == "" || len(r.Hosts) == 0 || r.Hosts[0].Name == "" {
		return event.RawEvent{}, false
	}

	sev, err := strconv.Atoi(r.Severity)
	if err != nil {
		return event.RawEvent{}, false
	}
	clock, err := strconv.ParseInt(r.Clock, 10, 64)
	if err != nil {
		return event.RawEvent{}, false
	}

	return event.RawEvent{
		EventID:         r.EventID,
		Host:            r.Hosts[0].Name,
		Severity:        sev,
		Clock:           clock,
		Name:            r.Name,
		Description:     r.RelatedObject.Description,
		OpData:          r.OpData,
		RecoveryEventID: r.REventID,
	}, true
}
