// Package leasing is the HTTP adapter for the leasing store. Every call
// returns a result.Result with a closed tag set; non-2xx responses are data.
package leasing

import (
	"context"
	"net/http"

	commonhttp "parkingspace-workers/internal/common/http"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/result"
)

// FetchError tags reads and in-place updates.
type FetchError string

const (
	FetchNotFound FetchError = "not-found"
	FetchUnknown  FetchError = "unknown"
)

// CreateError tags inserts.
type CreateError string

const (
	CreateConflict CreateError = "conflict"
	CreateUnknown  CreateError = "unknown"
)

type Empty struct{}

type Client struct {
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(httpClient *commonhttp.Client, log logger.Logger) *Client {
	return &Client{
		http:   httpClient,
		logger: log.WithFields(map[string]interface{}{"adapter": "leasing"}),
	}
}

func fetch[T any](ctx context.Context, c *Client, op, path string) result.Result[T, FetchError] {
	resp, err := c.http.Get(ctx, path)
	return decodeFetch[T](c, op, resp, err)
}

func decodeFetch[T any](c *Client, op string, resp commonhttp.Response, err error) result.Result[T, FetchError] {
	var zero T
	if err != nil {
		c.logger.Error("leasing request failed", map[string]interface{}{"op": op, "error": err})
		return result.ErrWithCause[T](FetchUnknown, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return result.Err[T](FetchNotFound)
	case !resp.OK():
		c.logger.Warn("leasing returned error status", map[string]interface{}{
			"op":         op,
			"statusCode": resp.StatusCode,
		})
		return result.Err[T](FetchUnknown)
	}

	if _, ok := any(zero).(Empty); ok {
		return result.Ok[T, FetchError](zero)
	}

	var data T
	if err := resp.DecodeContent(&data); err != nil {
		c.logger.Error("leasing response decode failed", map[string]interface{}{"op": op, "error": err})
		return result.ErrWithCause[T](FetchUnknown, err)
	}
	return result.Ok[T, FetchError](data)
}

func update(ctx context.Context, c *Client, op, method, path string, body interface{}) result.Result[Empty, FetchError] {
	resp, err := c.http.DoJSON(ctx, method, path, body)
	return decodeFetch[Empty](c, op, resp, err)
}

func create[T any](ctx context.Context, c *Client, op, path string, body interface{}) result.Result[T, CreateError] {
	var zero T
	resp, err := c.http.Post(ctx, path, body)
	if err != nil {
		c.logger.Error("leasing request failed", map[string]interface{}{"op": op, "error": err})
		return result.ErrWithCause[T](CreateUnknown, err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return result.Err[T](CreateConflict)
	case !resp.OK():
		c.logger.Warn("leasing returned error status", map[string]interface{}{
			"op":         op,
			"statusCode": resp.StatusCode,
		})
		return result.Err[T](CreateUnknown)
	}

	if _, ok := any(zero).(Empty); ok {
		return result.Ok[T, CreateError](zero)
	}

	var data T
	if err := resp.DecodeContent(&data); err != nil {
		c.logger.Error("leasing response decode failed", map[string]interface{}{"op": op, "error": err})
		return result.ErrWithCause[T](CreateUnknown, err)
	}
	return result.Ok[T, CreateError](data)
}
