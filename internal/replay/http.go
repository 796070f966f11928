package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with an optional JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// Delete performs a DELETE request
func (c *HTTPClient) Delete(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// createSession creates a session and returns its id.
func createSession(ctx context.Context, client *HTTPClient, baseURL string) (string, error) {
	resp, err := client.Post(ctx, baseURL+"/sessions", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read session response: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		return "", fmt.Errorf("unexpected status creating session: %d", resp.StatusCode)
	}
	var created CreateSessionResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse session response: %w", err)
	}
	return created.SessionID, nil
}

// deleteSession tears a session down; failures are logged, not fatal.
func deleteSession(ctx context.Context, client *HTTPClient, baseURL, id string) {
	resp, err := client.Delete(ctx, baseURL+"/sessions/"+id)
	if err != nil {
		return
	}
	_, _ = readResponseBody(resp)
}

// sessionResult accumulates per-session replay outcomes.
type sessionResult struct {
	replayed  int64
	submitted int64
	accepted  int64
	rejected  int64
	observed  int64
	matched   int64
}

// replayTraces distributes traces across sessions and replays them with a
// worker pool, one session per worker at a time.
func replayTraces(ctx context.Context, config *Config, traces []Trace, stats *Stats) error {
	log.Printf("replaying %d traces across %d sessions with %d workers...",
		len(traces), config.NumSessions, config.Workers)

	client := newHTTPClient(config.Timeout)

	var totals sessionResult
	var sessions int64

	// Partition traces per session.
	sessionChan := make(chan []Trace, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range sessionChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := replaySession(ctx, client, config, batch, &totals); err != nil {
					log.Printf("session replay failed: %v", err)
					continue
				}
				atomic.AddInt64(&sessions, 1)
				if config.Verbose {
					log.Printf("progress: %d/%d sessions replayed", atomic.LoadInt64(&sessions), config.NumSessions)
				}
			}
		}()
	}

	go func() {
		defer close(sessionChan)
		for i := 0; i < config.NumSessions; i++ {
			start := i * config.Gestures
			end := start + config.Gestures
			if end > len(traces) {
				end = len(traces)
			}
			select {
			case <-ctx.Done():
				return
			case sessionChan <- traces[start:end]:
			}
		}
	}()

	wg.Wait()

	stats.SessionsCreated = int(atomic.LoadInt64(&sessions))
	stats.GesturesReplayed = int(atomic.LoadInt64(&totals.replayed))
	stats.TouchesSubmitted = int(atomic.LoadInt64(&totals.submitted))
	stats.TouchesAccepted = int(atomic.LoadInt64(&totals.accepted))
	stats.TouchesRejected = int(atomic.LoadInt64(&totals.rejected))
	stats.PredictionsObserved = int(atomic.LoadInt64(&totals.observed))
	stats.PredictionsMatched = int(atomic.LoadInt64(&totals.matched))

	log.Printf(`replay completed:
   Sessions:    %d
   Gestures:    %d
   Touches:     %d accepted, %d rejected
   Predictions: %d observed, %d matched
`, stats.SessionsCreated, stats.GesturesReplayed,
		stats.TouchesAccepted, stats.TouchesRejected,
		stats.PredictionsObserved, stats.PredictionsMatched)

	return nil
}

// replaySession creates one session, replays its batch of traces, confirms
// predictions against the generated labels, and deletes the session.
func replaySession(ctx context.Context, client *HTTPClient, config *Config, batch []Trace, totals *sessionResult) error {
	id, err := createSession(ctx, client, config.BaseURL)
	if err != nil {
		return err
	}
	defer deleteSession(ctx, client, config.BaseURL, id)

	touchesURL := config.BaseURL + "/sessions/" + id + "/touches"

	for _, trace := range batch {
		for _, e := range trace.Events {
			resp, err := client.Post(ctx, touchesURL, e)
			if err != nil {
				atomic.AddInt64(&totals.rejected, 1)
				continue
			}
			_, _ = readResponseBody(resp)

			atomic.AddInt64(&totals.submitted, 1)
			if resp.StatusCode == StatusAccepted {
				atomic.AddInt64(&totals.accepted, 1)
			} else {
				atomic.AddInt64(&totals.rejected, 1)
			}
		}
		atomic.AddInt64(&totals.replayed, 1)

		// Let the dispatch lane drain before reading the prediction.
		time.Sleep(ProcessingDrainDelay)

		predicted, ok := fetchPrediction(ctx, client, config.BaseURL, id)
		if !ok {
			continue
		}
		atomic.AddInt64(&totals.observed, 1)
		if predicted == trace.Gesture {
			atomic.AddInt64(&totals.matched, 1)
		}

		// Confirm the generated label so server-side accuracy counters move.
		confirmGesture(ctx, client, config.BaseURL, id, trace.Gesture)
	}
	return nil
}

// fetchPrediction reads the latest prediction; ok is false when none exists.
func fetchPrediction(ctx context.Context, client *HTTPClient, baseURL, id string) (string, bool) {
	resp, err := client.Get(ctx, baseURL+"/sessions/"+id+"/prediction")
	if err != nil {
		return "", false
	}
	body, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != StatusOK {
		return "", false
	}
	var p PredictionResponse
	if err := json.Unmarshal(body, &p); err != nil {
		return "", false
	}
	return p.Gesture, true
}

// confirmGesture posts the observed gesture for accuracy tracking.
func confirmGesture(ctx context.Context, client *HTTPClient, baseURL, id, gesture string) {
	resp, err := client.Post(ctx, baseURL+"/sessions/"+id+"/confirm", map[string]string{"gesture": gesture})
	if err != nil {
		return
	}
	_, _ = readResponseBody(resp)
}
