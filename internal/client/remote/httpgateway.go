package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/client/store"
	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/dmitrijs2005/linkstash/internal/netx"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type uploadRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type uploadResponse struct {
	Key    string `json:"key"`
	PutURL string `json:"put_url"`
	GetURL string `json:"get_url"`
}

type apiError struct {
	Error string `json:"error"`
}

// HTTPGateway talks JSON over HTTP and transparently refreshes an expired
// access token once per request before giving up.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	log     logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPGateway(baseURL string, log logging.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

func (g *HTTPGateway) Register(ctx context.Context, username, password string) error {
	return g.do(ctx, http.MethodPost, "/api/v1/users/register",
		credentialsRequest{Username: username, Password: password}, nil, false)
}

func (g *HTTPGateway) Login(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	err := g.do(ctx, http.MethodPost, "/api/v1/users/login",
		credentialsRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	g.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

func (g *HTTPGateway) Logout() {
	g.setTokens("", "")
}

func (g *HTTPGateway) Upsert(ctx context.Context, kind store.Kind, entity any) error {
	id, err := identityOf(entity)
	if err != nil {
		return err
	}
	return g.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/%s/%s", kind, id), entity, nil, true)
}

func (g *HTTPGateway) QueryAll(ctx context.Context, kind store.Kind) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	if err := g.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/%s", kind), nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *HTTPGateway) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) > common.MaxUploadBytes {
		return "", fmt.Errorf("%s (%d bytes): %w", name, len(data), common.ErrFileTooLarge)
	}

	var slot uploadResponse
	req := uploadRequest{Name: name, Size: int64(len(data))}
	if err := g.do(ctx, http.MethodPost, "/api/v1/uploads", req, &slot, true); err != nil {
		return "", err
	}
	if err := netx.UploadToPresignedURL(ctx, g.client, slot.PutURL, data); err != nil {
		return "", err
	}
	return slot.GetURL, nil
}

func (g *HTTPGateway) Ping(ctx context.Context) error {
	return g.do(ctx, http.MethodGet, "/healthz", nil, nil, false)
}

func (g *HTTPGateway) setTokens(access, refresh string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accessToken = access
	g.refreshToken = refresh
}

func (g *HTTPGateway) tokens() (string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accessToken, g.refreshToken
}

// do performs one JSON round trip. When an authenticated call comes back
// 401 with a token-expired message, the token pair is refreshed and the
// call is retried exactly once.
func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	status, respBody, err := g.roundTrip(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && authed {
		var ae apiError
		_ = json.Unmarshal(respBody, &ae)
		_, refresh := g.tokens()
		if ae.Error == common.ErrTokenExpired.Error() && refresh != "" {
			if err := g.refresh(ctx); err != nil {
				return err
			}
			status, respBody, err = g.roundTrip(ctx, method, path, body, authed)
			if err != nil {
				return err
			}
		}
	}

	return decodeResponse(status, respBody, out)
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, path string, body any, authed bool) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		access, _ := g.tokens()
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func (g *HTTPGateway) refresh(ctx context.Context) error {
	_, refresh := g.tokens()

	status, body, err := g.roundTrip(ctx, http.MethodPost, "/api/v1/users/refresh",
		refreshRequest{RefreshToken: refresh}, false)
	if err != nil {
		return err
	}

	var resp tokenResponse
	if err := decodeResponse(status, body, &resp); err != nil {
		return err
	}
	g.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func decodeResponse(status int, body []byte, out any) error {
	if status >= 200 && status < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, out)
	}

	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, common.ErrorUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, common.ErrorNotFound)
	case http.StatusConflict:
		if msg == common.ErrorLoginAlreadyExists.Error() {
			return common.ErrorLoginAlreadyExists
		}
		return fmt.Errorf("%s: %w", msg, common.ErrOwnerConflict)
	default:
		return fmt.Errorf("server returned %d: %s", status, msg)
	}
}

func identityOf(entity any) (string, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("encode entity: %w", err)
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.ID == "" {
		return "", fmt.Errorf("entity has no identity")
	}
	return probe.ID, nil
}
