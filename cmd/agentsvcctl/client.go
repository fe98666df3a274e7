package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// cliError pairs an error with the exit code main should return for
// it, so command bodies can return ordinary errors while still
// controlling the process exit status spec §6 names.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	if ce, ok := err.(*cliError); ok {
		return ce.code
	}
	return exitGeneric
}

// envelope mirrors api/rest's response shape.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	RequestID  string          `json:"request_id"`
	DurationMs int64           `json:"duration_ms"`
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 30 * time.Second}}
}

// call issues method against path, encoding body as JSON if non-nil,
// and decodes the envelope. A non-2xx status or success=false is
// translated into a cliError carrying the exit code the status implies.
func (c *apiClient) call(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &cliError{exitGeneric, err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return &cliError{exitGeneric, err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &cliError{exitBackend, fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &cliError{exitBackend, fmt.Errorf("decode response: %w", err)}
	}

	if !env.Success {
		return &cliError{exitCodeForStatus(resp.StatusCode), fmt.Errorf("%s", env.Error)}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &cliError{exitGeneric, fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}

func exitCodeForStatus(status int) int {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return exitValidation
	case status == http.StatusConflict:
		return exitConflict
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return exitBackend
	default:
		return exitGeneric
	}
}
