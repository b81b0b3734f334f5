package rest

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

	"github.com/shopspring/decimal"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
)

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"

	defaultTimeout = 15 * time.Second
)

// Client talks to the hosted data service: token-based auth plus a
// row-filtered REST interface over the investments relation.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Ensure interface conformance
var (
	_ data.AuthService     = (*Client)(nil)
	_ data.InvestmentStore = (*Client)(nil)
)

// New creates a client for the service at baseURL. The API key is sent on
// every request; per-user authorization is the session's bearer token.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// sessionResponse is the token bundle the auth endpoints return.
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (r sessionResponse) toSession() core.Session {
	return core.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		User:         core.User{ID: r.User.ID, Email: r.User.Email},
	}
}

// errorResponse covers the service's error body variants.
type errorResponse struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	}
	return ""
}

// investmentRow is the wire shape of one investments row.
type investmentRow struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      core.Date       `json:"investment_date"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`
}

func (r investmentRow) toInvestment() core.Investment {
	return core.Investment{
		ID:        r.ID,
		UserID:    r.UserID,
		Amount:    r.Amount,
		Category:  core.Category(r.Category),
		Date:      r.Date,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var out sessionResponse
	err := c.doJSON(ctx, http.MethodPost, authPath+"/token?grant_type=password", "", body, &out)
	if err != nil {
		return core.Session{}, err
	}
	return out.toSession(), nil
}

// RefreshSession exchanges a refresh token for a fresh session. The remote
// side rotates refresh tokens, so the returned session replaces the old
// one entirely.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (core.Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out sessionResponse
	err := c.doJSON(ctx, http.MethodPost, authPath+"/token?grant_type=refresh_token", "", body, &out)
	if err != nil {
		return core.Session{}, err
	}
	return out.toSession(), nil
}

// SignOut invalidates the session's tokens on the remote side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, authPath+"/logout", accessToken, nil, nil)
}

// ListInvestments returns the caller's rows ordered by investment date
// descending. The user filter is belt-and-braces: the service's row-level
// rules already scope reads to the token's owner.
func (c *Client) ListInvestments(ctx context.Context, sess core.Session, userID string) ([]core.Investment, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "investment_date.desc,created_at.desc")

	var rows []investmentRow
	err := c.doJSON(ctx, http.MethodGet, restPath+"/investments?"+q.Encode(), sess.AccessToken, nil, &rows)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	out := make([]core.Investment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toInvestment())
	}
	return out, nil
}

// InsertInvestment creates one row and returns the server-assigned result.
func (c *Client) InsertInvestment(ctx context.Context, sess core.Session, n core.NewInvestment) (core.Investment, error) {
	if err := n.Validate(); err != nil {
		return core.Investment{}, err
	}
	payload := []investmentRow{{
		UserID:   n.UserID,
		Amount:   n.Amount,
		Category: n.Category.String(),
		Date:     n.Date,
		Notes:    n.Notes,
	}}

	var rows []investmentRow
	err := c.doJSON(ctx, http.MethodPost, restPath+"/investments", sess.AccessToken, payload, &rows)
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	if len(rows) == 0 {
		return core.Investment{}, fmt.Errorf("insert investment: empty response")
	}
	return rows[0].toInvestment(), nil
}

// DeleteInvestment removes the row with the given id, scoped to userID.
func (c *Client) DeleteInvestment(ctx context.Context, sess core.Session, id, userID string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+userID)
	err := c.doJSON(ctx, http.MethodDelete, restPath+"/investments?"+q.Encode(), sess.AccessToken, nil, nil)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return nil
}

// doJSON performs one request against the service. A non-nil out decodes
// the response body; token may be empty for credential-grant calls.
func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost && strings.HasPrefix(path, restPath) {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call remote service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body errorResponse
	_ = json.Unmarshal(raw, &body)
	msg := body.text()
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if strings.Contains(strings.ToLower(msg), "credentials") {
			return fmt.Errorf("%w: %s", data.ErrInvalidCredentials, msg)
		}
		return fmt.Errorf("%w: %s", data.ErrSessionExpired, msg)
	case http.StatusBadRequest:
		// the token endpoint reports bad credentials as 400
		if strings.Contains(strings.ToLower(msg), "grant") || strings.Contains(strings.ToLower(msg), "credentials") {
			return fmt.Errorf("%w: %s", data.ErrInvalidCredentials, msg)
		}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", data.ErrNotFound, msg)
	}
	return fmt.Errorf("remote service: %s (status %d)", msg, resp.StatusCode)
}
