package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkstash/internal/common"
	"github.com/dmitrijs2005/linkstash/internal/dbx"
	"github.com/dmitrijs2005/linkstash/internal/logging"
	"github.com/dmitrijs2005/linkstash/internal/server/auth"
	"github.com/dmitrijs2005/linkstash/internal/server/config"
	"github.com/dmitrijs2005/linkstash/internal/server/models"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/entities"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/linkstash/internal/server/repositories/users"
	"github.com/dmitrijs2005/linkstash/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// In-memory repositories so the full HTTP stack runs without Postgres.

type memUserRepo struct{ byName map[string]*models.User }

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := r.byName[user.Username]; ok {
		return common.ErrorLoginAlreadyExists
	}
	r.byName[user.Username] = user
	return nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type memTokenRepo struct{ byToken map[string]*models.RefreshToken }

func (r *memTokenRepo) Add(ctx context.Context, token *models.RefreshToken) error {
	r.byToken[token.Token] = token
	return nil
}

func (r *memTokenRepo) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *memTokenRepo) Delete(ctx context.Context, token string) error {
	delete(r.byToken, token)
	return nil
}

type memEntityRepo struct{ byID map[string]*models.Entity }

func (r *memEntityRepo) Upsert(ctx context.Context, entity *models.Entity) error {
	if prev, ok := r.byID[entity.ID]; ok && prev.UserID != entity.UserID {
		return common.ErrOwnerConflict
	}
	r.byID[entity.ID] = entity
	return nil
}

func (r *memEntityRepo) SelectAll(ctx context.Context, userID, kind string) ([]*models.Entity, error) {
	var result []*models.Entity
	for _, e := range r.byID {
		if e.UserID == userID && e.Kind == kind {
			result = append(result, e)
		}
	}
	return result, nil
}

type memRepoManager struct {
	users    *memUserRepo
	tokens   *memTokenRepo
	entities *memEntityRepo
}

func (m *memRepoManager) Users(db dbx.DBTX) users.Repository { return m.users }
func (m *memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.tokens
}
func (m *memRepoManager) Entities(db dbx.DBTX) entities.Repository { return m.entities }

func newTestAPI(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := &memRepoManager{
		users:    &memUserRepo{byName: make(map[string]*models.User)},
		tokens:   &memTokenRepo{byToken: make(map[string]*models.RefreshToken)},
		entities: &memEntityRepo{byID: make(map[string]*models.Entity)},
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	api := New(
		services.NewUserService(db, m, cfg),
		services.NewEntityService(db, m),
		services.NewFileService(cfg),
		cfg, log,
	)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv, cfg
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username string) tokenResponse {
	t.Helper()

	creds := credentialsRequest{Username: username, Password: "pw123"}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens tokenResponse
	require.NoError(t, json.Unmarshal(body, &tokens))
	return tokens
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestRegisterLoginRefresh_FullFlow(t *testing.T) {
	srv, cfg := newTestAPI(t)

	tokens := registerAndLogin(t, srv, "alice")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.UserID)

	owner, err := auth.GetUserIDFromToken(tokens.AccessToken, []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, tokens.UserID, owner)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/refresh", "",
		refreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fresh tokenResponse
	require.NoError(t, json.Unmarshal(body, &fresh))
	assert.Equal(t, tokens.UserID, fresh.UserID)
	assert.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)

	// Rotated token cannot be replayed.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/refresh", "",
		refreshRequest{RefreshToken: tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_Duplicate(t *testing.T) {
	srv, _ := newTestAPI(t)
	registerAndLogin(t, srv, "alice")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/register", "",
		credentialsRequest{Username: "alice", Password: "other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var ae apiError
	require.NoError(t, json.Unmarshal(body, &ae))
	assert.Equal(t, common.ErrorLoginAlreadyExists.Error(), ae.Error)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, _ := newTestAPI(t)
	registerAndLogin(t, srv, "alice")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/users/login", "",
		credentialsRequest{Username: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEntities_UpsertAndList(t *testing.T) {
	srv, _ := newTestAPI(t)
	tokens := registerAndLogin(t, srv, "alice")

	doc := map[string]any{"id": "l1", "url": "https://example.com", "updated_at": time.Now().UTC()}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/links/l1", tokens.AccessToken, doc)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 1)

	// Other kinds stay empty, as JSON arrays rather than null.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/notes", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestEntities_OwnerScoping(t *testing.T) {
	srv, _ := newTestAPI(t)
	alice := registerAndLogin(t, srv, "alice")
	bob := registerAndLogin(t, srv, "bob")

	doc := map[string]any{"id": "l1", "url": "https://example.com"}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/links/l1", alice.AccessToken, doc)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Bob cannot see Alice's entity.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	// Nor take over her row id.
	resp, respBody := doJSON(t, http.MethodPut, srv.URL+"/api/v1/links/l1", bob.AccessToken, doc)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var ae apiError
	require.NoError(t, json.Unmarshal(respBody, &ae))
	assert.Equal(t, common.ErrOwnerConflict.Error(), ae.Error)
}

func TestEntities_UnknownKind(t *testing.T) {
	srv, _ := newTestAPI(t)
	tokens := registerAndLogin(t, srv, "alice")

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/gadgets", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEntities_IDMismatchRejected(t *testing.T) {
	srv, _ := newTestAPI(t)
	tokens := registerAndLogin(t, srv, "alice")

	doc := map[string]any{"id": "other"}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/links/l1", tokens.AccessToken, doc)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_MissingAndExpiredToken(t *testing.T) {
	srv, cfg := newTestAPI(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired, err := auth.GenerateToken("u1", []byte(cfg.SecretKey), -time.Minute)
	require.NoError(t, err)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/links", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var ae apiError
	require.NoError(t, json.Unmarshal(body, &ae))
	assert.Equal(t, common.ErrTokenExpired.Error(), ae.Error, "expired tokens must be distinguishable so clients refresh")
}

func TestUploads_SizeGuard(t *testing.T) {
	srv, _ := newTestAPI(t)
	tokens := registerAndLogin(t, srv, "alice")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads", tokens.AccessToken,
		uploadRequest{Name: "big.bin", Size: common.MaxUploadBytes + 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var ae apiError
	require.NoError(t, json.Unmarshal(body, &ae))
	assert.Equal(t, common.ErrFileTooLarge.Error(), ae.Error)
}

func TestUploads_PresignedSlot(t *testing.T) {
	srv, _ := newTestAPI(t)
	tokens := registerAndLogin(t, srv, "alice")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/uploads", tokens.AccessToken,
		uploadRequest{Name: "doc.pdf", Size: 1024})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var slot uploadResponse
	require.NoError(t, json.Unmarshal(body, &slot))
	assert.NotEmpty(t, slot.Key)
	assert.Contains(t, slot.PutURL, slot.Key)
	assert.Contains(t, slot.GetURL, slot.Key)
}
