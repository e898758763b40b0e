// Package client is a typed HTTP client for the prediction API.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vinprj/predictml/internal/adapters/primary/http/dto"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server returned %d: %s (field %s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

var ErrRequestFailed = errors.New("request failed")

type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) do(req *resty.Request, method, path string) error {
	var apiErr dto.ErrorResponse
	res, err := req.SetError(&apiErr).Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	if res.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = res.Status()
		}
		return &APIError{Status: res.StatusCode(), Message: msg, Field: apiErr.Field}
	}
	return nil
}

// Predict returns the raw response body, whose prediction key depends on the
// model.
func (c *Client) Predict(ctx context.Context, model string, fields map[string]any) (dto.PredictResponse, error) {
	var out dto.PredictResponse
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetHeader("Content-Type", "application/json").
		SetBody(fields).
		SetResult(&out)
	if err := c.do(req, resty.MethodPost, "/predict/{model}"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Models(ctx context.Context) ([]dto.ModelMetadataResponse, error) {
	var out []dto.ModelMetadataResponse
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&out), resty.MethodGet, "/models"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Model(ctx context.Context, name string) (*dto.ModelDetailResponse, error) {
	var out dto.ModelDetailResponse
	req := c.http.R().SetContext(ctx).SetPathParam("model", name).SetResult(&out)
	if err := c.do(req, resty.MethodGet, "/models/{model}"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FeatureImportance(ctx context.Context, name string) (*dto.FeatureImportanceResponse, error) {
	var out dto.FeatureImportanceResponse
	req := c.http.R().SetContext(ctx).SetPathParam("model", name).SetResult(&out)
	if err := c.do(req, resty.MethodGet, "/models/{model}/feature-importance"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Catalog(ctx context.Context) ([]dto.CatalogEntryResponse, error) {
	var out []dto.CatalogEntryResponse
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&out), resty.MethodGet, "/catalog"); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists recent predictions. Zero limit and empty model leave the
// server defaults in place.
func (c *Client) History(ctx context.Context, limit int, model string) ([]dto.HistoryRecordResponse, error) {
	var out []dto.HistoryRecordResponse
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if model != "" {
		req.SetQueryParam("model_name", model)
	}
	if err := c.do(req, resty.MethodGet, "/history"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (*dto.HistoryStatsResponse, error) {
	var out dto.HistoryStatsResponse
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&out), resty.MethodGet, "/history/stats"); err != nil {
		return nil, err
	}
	return &out, nil
}
