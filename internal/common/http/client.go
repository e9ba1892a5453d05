package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is a completed exchange. Any status code is data; only transport
// failures surface as errors.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get returns the gjson value at path in the body.
func (r Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Content returns the raw JSON of the "content" envelope field, or the whole
// body when the envelope is absent.
func (r Response) Content() []byte {
	if c := r.Get("content"); c.Exists() {
		return []byte(c.Raw)
	}
	return r.Body
}

// DecodeContent unmarshals the envelope content into v.
func (r Response) DecodeContent(v interface{}) error {
	raw := r.Content()
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("empty response body (status %d)", r.StatusCode)
	}
	return json.Unmarshal(raw, v)
}

// ErrorTag returns the upstream error tag ("error" or "type" field).
func (r Response) ErrorTag() string {
	if tag := r.Get("error"); tag.Type == gjson.String {
		return tag.String()
	}
	return r.Get("type").String()
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Get(ctx context.Context, path string) (Response, error) {
	return c.DoJSON(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (Response, error) {
	return c.DoJSON(ctx, http.MethodPost, path, body)
}

// DoJSON sends body as JSON (nil for no body) and reads the full response.
func (c *Client) DoJSON(ctx context.Context, method, path string, body interface{}) (Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(req)
}

func (c *Client) Do(req *http.Request) (Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("read response body: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}
