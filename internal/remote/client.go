// Package remote talks to the labtrackd HTTP API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/wire"
)

// ErrUnavailable is returned when the API cannot be reached or answers with a non-success status.
var ErrUnavailable = errors.New("remote api unavailable")

// StatusError reports a non-2xx answer. It unwraps to ErrUnavailable.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return ErrUnavailable }

// Unauthorized reports whether the server rejected the session cookie.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Client is a thin resty wrapper. It performs exactly one attempt per call.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client for the API at baseURL. sessionCookie is sent verbatim in the Cookie header.
func NewClient(baseURL string, timeout time.Duration, sessionCookie string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if sessionCookie != "" {
		c.SetHeader("Cookie", sessionCookie)
	}
	return &Client{http: c, logger: logger}
}

// ListReservations fetches reservations of one lab, or every lab when lab is empty.
func (c *Client) ListReservations(ctx context.Context, lab model.Lab) ([]model.Reservation, error) {
	req := c.http.R().SetContext(ctx)
	if lab != "" {
		req.SetQueryParam("lab", string(lab))
	}

	var records []map[string]any
	if err := c.do(req.SetResult(&records), http.MethodGet, "/api/reservations"); err != nil {
		return nil, err
	}

	out := make([]model.Reservation, 0, len(records))
	for _, rec := range records {
		r := wire.Reservation(rec)
		r.Origin = model.OriginRemote
		out = append(out, r)
	}
	return out, nil
}

// CreateReservation posts a reservation and returns the stored record with its server id.
func (c *Client) CreateReservation(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	body := map[string]any{
		"lab":       string(r.Lab),
		"requester": r.Requester,
		"group":     r.Group,
		"date":      r.Date,
		"timeRange": r.TimeRange,
		"notes":     r.Notes,
	}

	var rec map[string]any
	req := c.http.R().SetContext(ctx).SetBody(body).SetResult(&rec)
	if err := c.do(req, http.MethodPost, "/api/reservations"); err != nil {
		return model.Reservation{}, err
	}

	created := wire.Reservation(rec)
	if created.ID == "" {
		return model.Reservation{}, fmt.Errorf("%w: create reservation response carried no id", ErrUnavailable)
	}
	created.Origin = model.OriginRemote
	return created, nil
}

// DeleteReservation removes a reservation by id.
func (c *Client) DeleteReservation(ctx context.Context, id string) error {
	req := c.http.R().SetContext(ctx)
	return c.do(req, http.MethodDelete, "/api/reservations/"+url.PathEscape(id))
}

type recordResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// RecordHistory posts one audit event and returns the id the server assigned.
func (c *Client) RecordHistory(ctx context.Context, ev model.HistoryEvent) (string, error) {
	body := map[string]any{
		"lab":        string(ev.Lab),
		"action":     ev.Action,
		"entityType": ev.EntityType,
		"entityId":   ev.EntityID,
		"user":       ev.User,
		"createdAt":  ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		"data":       ev.Data,
	}

	var resp recordResponse
	req := c.http.R().SetContext(ctx).SetBody(body).SetResult(&resp)
	if err := c.do(req, http.MethodPost, "/api/history"); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("%w: history write not acknowledged", ErrUnavailable)
	}
	return resp.ID, nil
}

// ListHistory fetches the newest limit events of one lab, or every lab when lab is empty.
func (c *Client) ListHistory(ctx context.Context, lab model.Lab, limit int) ([]model.HistoryEvent, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = fmt.Sprint(limit)
	}
	return c.listHistory(ctx, lab, params)
}

// HistoryWindow fetches every event of lab created within [since, until], newest first, in pages
// of pageSize. Zero bounds are open.
func (c *Client) HistoryWindow(ctx context.Context, lab model.Lab, since, until time.Time, pageSize int) ([]model.HistoryEvent, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	params := map[string]string{"limit": fmt.Sprint(pageSize)}
	if !since.IsZero() {
		params["since"] = since.UTC().Format(time.RFC3339Nano)
	}
	if !until.IsZero() {
		params["until"] = until.UTC().Format(time.RFC3339Nano)
	}

	var out []model.HistoryEvent
	for {
		page, err := c.listHistory(ctx, lab, params)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}
		out = append(out, page...)

		last := page[len(page)-1]
		if last.CreatedAt.IsZero() || last.ID == "" {
			return nil, fmt.Errorf("%w: history page ends with an event lacking id or createdAt", ErrUnavailable)
		}
		params["before"] = last.CreatedAt.UTC().Format(time.RFC3339Nano)
		params["beforeId"] = last.ID
		c.logger.Debug("Fetching next history page", zap.Int("fetched", len(out)), zap.String("before", params["before"]))
	}
}

func (c *Client) listHistory(ctx context.Context, lab model.Lab, params map[string]string) ([]model.HistoryEvent, error) {
	labParam := "all"
	if lab != "" {
		labParam = string(lab)
	}
	req := c.http.R().SetContext(ctx).SetQueryParam("lab", labParam).SetQueryParams(params)

	var records []map[string]any
	if err := c.do(req.SetResult(&records), http.MethodGet, "/api/history"); err != nil {
		return nil, err
	}

	out := make([]model.HistoryEvent, 0, len(records))
	for _, rec := range records {
		out = append(out, wire.HistoryEvent(rec))
	}
	return out, nil
}

// ListLoans fetches loans of one lab, or every lab when lab is empty.
func (c *Client) ListLoans(ctx context.Context, lab model.Lab) ([]model.Loan, error) {
	req := c.http.R().SetContext(ctx)
	if lab != "" {
		req.SetQueryParam("lab", string(lab))
	}

	var loans []model.Loan
	if err := c.do(req.SetResult(&loans), http.MethodGet, "/api/loans"); err != nil {
		return nil, err
	}
	return loans, nil
}

// CreateLoan registers a new outstanding loan.
func (c *Client) CreateLoan(ctx context.Context, l model.Loan) (model.Loan, error) {
	var created model.Loan
	req := c.http.R().SetContext(ctx).SetBody(l).SetResult(&created)
	if err := c.do(req, http.MethodPost, "/api/loans"); err != nil {
		return model.Loan{}, err
	}
	return created, nil
}

// ReturnLoan marks a loan as returned.
func (c *Client) ReturnLoan(ctx context.Context, id string) (model.Loan, error) {
	var returned model.Loan
	req := c.http.R().SetContext(ctx).SetResult(&returned)
	if err := c.do(req, http.MethodPost, "/api/loans/"+url.PathEscape(id)+"/return"); err != nil {
		return model.Loan{}, err
	}
	return returned, nil
}

func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("Remote API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	if resp.IsError() {
		statusErr := &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode(),
			Body:   errorMessage(resp.Body()),
		}
		c.logger.Warn("Remote API returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return statusErr
	}
	return nil
}
