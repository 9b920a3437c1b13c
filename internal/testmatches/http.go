package testmatches

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/types"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// rankRequest mirrors the POST /rankings body.
type rankRequest struct {
	Matches    []model.Match `json:"matches"`
	Damping    float64       `json:"damping"`
	Policy     string        `json:"policy"`
	Iterations int           `json:"iterations"`
}

type submitResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type replayResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Steps  int    `json:"steps"`
	Error  string `json:"error"`
}

type leaderboardResponse struct {
	Step    int           `json:"step"`
	Leader  string        `json:"leader"`
	Entries []types.Entry `json:"entries"`
}

// do sends a request and decodes a JSON response when out is not nil.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (c *HTTPClient) rank(ctx context.Context, req rankRequest) (types.Standings, error) {
	var out types.Standings
	err := c.do(ctx, http.MethodPost, "/rankings", req, http.StatusOK, &out)
	return out, err
}

func (c *HTTPClient) submitReplay(ctx context.Context, matches []model.Match) (submitResponse, error) {
	var out submitResponse
	body := struct {
		Matches []model.Match `json:"matches"`
	}{Matches: matches}
	err := c.do(ctx, http.MethodPost, "/replays", body, http.StatusAccepted, &out)
	return out, err
}

func (c *HTTPClient) replay(ctx context.Context, id string) (replayResponse, error) {
	var out replayResponse
	err := c.do(ctx, http.MethodGet, "/replays/"+id, nil, http.StatusOK, &out)
	return out, err
}

func (c *HTTPClient) leaderboard(ctx context.Context, id string, limit int) (leaderboardResponse, error) {
	var out leaderboardResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/replays/%s/leaderboard?limit=%d", id, limit), nil, http.StatusOK, &out)
	return out, err
}
