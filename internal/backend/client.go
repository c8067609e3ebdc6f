/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */


package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stickerdesigner/internal/config"
	"stickerdesigner/internal/domain"
)

// Client talks to the design persistence API.
type Client struct {
	BaseURL string
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.Defaults().Client.Timeout()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientFromConfig builds a client from the client config section.
func NewClientFromConfig(c config.ClientConfig) *Client {
	return NewClient(c.BaseURL, c.Timeout())
}

// APIError is a non-2xx response. Message carries the server's "error" field when present.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d", e.Method, e.Path, e.Status)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: u.Path, Status: resp.StatusCode}
		var env struct {
			Error string `json:"error"`
		}
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); rerr == nil && json.Unmarshal(b, &env) == nil {
			apiErr.Message = env.Error
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// ListDesigns returns every saved design, oldest first.
func (c *Client) ListDesigns(ctx context.Context) ([]domain.Design, error) {
	list := []domain.Design{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/designs", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SaveDesign posts stickers (any JSON-encodable value) as a new design.
func (c *Client) SaveDesign(ctx context.Context, stickers any) (SaveResponse, error) {
	var res SaveResponse
	body := map[string]any{"stickers": stickers}
	if err := c.doJSON(ctx, http.MethodPost, "/api/save-design", body, &res); err != nil {
		return SaveResponse{}, err
	}
	return res, nil
}

// Ready reports whether the service answers /readyz with 200.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/readyz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: http.MethodGet, Path: "/readyz", Status: resp.StatusCode}
	}
	return nil
}
