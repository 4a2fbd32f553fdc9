package relay

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
)

// maxBackendBody caps how much of a backend response the relay will buffer.
const maxBackendBody = 1 << 20

// BackendClient talks to the todo backend on behalf of the browser.
type BackendClient struct {
	baseURL *url.URL
	http    *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) (*BackendClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	return &BackendClient{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// BackendResponse is a fully read backend reply.
type BackendResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *BackendResponse) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// do sends a request to path (which may carry a query) with an optional
// JSON body and session cookie, and reads the whole reply.
func (c *BackendClient) do(ctx context.Context, method, path string, payload interface{}, cookie *http.Cookie) (*BackendResponse, error) {
	target, err := c.baseURL.Parse(c.baseURL.Path + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBackendBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &BackendResponse{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *BackendClient) Login(ctx context.Context, email, password string) (*BackendResponse, error) {
	return c.do(ctx, http.MethodPost, "/login?useCookies=true&useSessionCookies=true", credentials{email, password}, nil)
}

func (c *BackendClient) Register(ctx context.Context, email, password string) (*BackendResponse, error) {
	return c.do(ctx, http.MethodPost, "/register", credentials{email, password}, nil)
}

func (c *BackendClient) Logout(ctx context.Context, session *http.Cookie) (*BackendResponse, error) {
	return c.do(ctx, http.MethodPost, "/logout", nil, session)
}

// AccountInfo is the backend's /manage/info reply.
type AccountInfo struct {
	Email            string `json:"email"`
	IsEmailConfirmed bool   `json:"isEmailConfirmed"`
}

// Info returns the account behind session. Any non-2xx answer is an error.
func (c *BackendClient) Info(ctx context.Context, session *http.Cookie) (*AccountInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/manage/info", nil, session)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("manage/info: status %d", resp.Status)
	}
	var info AccountInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, fmt.Errorf("decode manage/info: %w", err)
	}
	return &info, nil
}
