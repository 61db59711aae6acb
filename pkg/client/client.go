package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

type BenchmarkResult struct {
	Min time.Duration
	Max time.Duration
	Avg time.Duration
	P99 time.Duration
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// NewClient targets the HTTP API at address, either host:port or a full URL.
func NewClient(address string) (*Client, error) {
	if address == "" {
		return nil, errors.New("server address cannot be empty")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	return nil
}

type valueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Get returns the value for key and whether it exists.
func (c *Client) Get(ctx context.Context, key string) (any, bool, error) {
	var resp valueResponse
	err := c.do(ctx, http.MethodGet, "/get", url.Values{"key": {key}}, nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return resp.Value, true, nil
}

func (c *Client) Set(ctx context.Context, key string, value any) error {
	return c.do(ctx, http.MethodPost, "/set", nil, valueResponse{Key: key, Value: value}, nil)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodPost, "/delete", url.Values{"key": {key}}, nil, nil)
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clear", nil, nil, nil)
}

func (c *Client) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	var resp struct {
		Value int64 `json:"value"`
	}
	query := url.Values{"key": {key}, "delta": {strconv.FormatInt(delta, 10)}}
	if err := c.do(ctx, http.MethodPost, "/incr", query, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Keys lists keys, optionally filtered by a glob or substring pattern.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	var query url.Values
	if pattern != "" {
		query = url.Values{"pattern": {pattern}}
	}
	var keys []string
	if err := c.do(ctx, http.MethodGet, "/keys", query, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// Health returns the server's storage status, "ok" or "degraded".
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		return "degraded: " + apiErr.Message, nil
	}
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// SendCommand runs one textual command such as `SET visits 1` and renders
// the result. Server-side rejections come back as an "ERR ..." response; the
// error is reserved for transport failures.
func (c *Client) SendCommand(ctx context.Context, command string) (string, error) {
	name, args, err := ParseCommand(command)
	if err != nil {
		return "ERR " + err.Error(), nil
	}

	response, err := c.execute(ctx, name, args)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "ERR " + apiErr.Message, nil
	}
	return response, err
}

func (c *Client) execute(ctx context.Context, name string, args []string) (string, error) {
	switch name {
	case "PING":
		if _, err := c.Health(ctx); err != nil {
			return "", err
		}
		return "PONG", nil
	case "GET":
		if len(args) != 1 {
			return "ERR wrong number of arguments for 'GET' command", nil
		}
		value, exists, err := c.Get(ctx, args[0])
		if err != nil {
			return "", err
		}
		if !exists {
			return "nil", nil
		}
		return formatValue(value), nil
	case "SET":
		if len(args) < 2 {
			return "ERR wrong number of arguments for 'SET' command", nil
		}
		if err := c.Set(ctx, args[0], parseValue(args[1:])); err != nil {
			return "", err
		}
		return "OK", nil
	case "DEL", "DELETE":
		if len(args) != 1 {
			return "ERR wrong number of arguments for 'DEL' command", nil
		}
		if err := c.Delete(ctx, args[0]); err != nil {
			return "", err
		}
		return "OK", nil
	case "CLEAR", "FLUSHDB":
		if err := c.Clear(ctx); err != nil {
			return "", err
		}
		return "OK", nil
	case "INCR", "DECR":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Sprintf("ERR wrong number of arguments for '%s' command", name), nil
		}
		delta := int64(1)
		if len(args) == 2 {
			parsed, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return "ERR invalid increment", nil
			}
			delta = parsed
		}
		if name == "DECR" {
			delta = -delta
		}
		value, err := c.Incr(ctx, args[0], delta)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(value, 10), nil
	case "KEYS":
		if len(args) > 1 {
			return "ERR wrong number of arguments for 'KEYS' command", nil
		}
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}
		keys, err := c.Keys(ctx, pattern)
		if err != nil {
			return "", err
		}
		return strings.Join(keys, ", "), nil
	case "HEALTH":
		return c.Health(ctx)
	default:
		return "ERR unknown command", nil
	}
}

func (c *Client) Benchmark(commands []string, clients, iterations int) (map[string]BenchmarkResult, int, int, time.Duration, error) {
	if clients < 1 || iterations < 1 {
		return nil, 0, 0, 0, errors.New("clients and iterations must be positive")
	}

	var wg sync.WaitGroup
	results := make(map[string][]time.Duration)
	mu := sync.Mutex{}
	totalCommands := 0
	successfulClients := 0

	start := time.Now()

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := &Client{baseURL: c.baseURL, http: &http.Client{Timeout: defaultTimeout}}
			defer worker.Close()

			if _, err := worker.SendCommand(context.Background(), "PING"); err != nil {
				return
			}

			mu.Lock()
			successfulClients++
			mu.Unlock()

			for j := 0; j < iterations; j++ {
				for _, command := range commands {
					mainCommand, _, _ := ParseCommand(command)
					start := time.Now()
					_, err := worker.SendCommand(context.Background(), command)
					duration := time.Since(start)
					if err != nil {
						return
					}
					mu.Lock()
					results[mainCommand] = append(results[mainCommand], duration)
					totalCommands++
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	if successfulClients == 0 {
		return nil, 0, 0, elapsed, errors.New("no client could reach the server")
	}

	benchmarkResults := make(map[string]BenchmarkResult)
	for command, durations := range results {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		sum := time.Duration(0)
		for _, d := range durations {
			sum += d
		}

		benchmarkResults[command] = BenchmarkResult{
			Min: durations[0],
			Max: durations[len(durations)-1],
			Avg: sum / time.Duration(len(durations)),
			P99: durations[int(float64(len(durations))*0.99)],
		}
	}

	return benchmarkResults, successfulClients, totalCommands, elapsed, nil
}
