package front

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/models"
	"github.com/vanillai/vanillai/internal/ratelimit"
	"github.com/vanillai/vanillai/internal/seed"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"github.com/vanillai/vanillai/internal/validate"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "front-test-secret", Expiry: time.Hour}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validate.Register())

	conn, err := db.Open(db.BuildSQLiteDSN(filepath.Join(t.TempDir(), "front.db")))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	_, err = seed.Run(context.Background(), conn)
	require.NoError(t, err)

	internalsettings.StoreDBConfig(nil)
	t.Cleanup(func() { internalsettings.StoreDBConfig(nil) })

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewManager(nil, func() time.Time { return fixed }, nil)
	t.Cleanup(func() { _ = limiter.Close() })

	r := gin.New()
	RegisterFrontRoutes(r, conn, testJWT, config.ServerConfig{AdminEmails: []string{"boss@example.com"}}, limiter)
	return r, conn
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func register(t *testing.T, r http.Handler, email, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v0/auth/register", "", gin.H{
		"email":    email,
		"username": username,
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestModelEndpoints(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/v0/ai-models?category="+url.QueryEscape("이미지 생성")+"&sort=name&order=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 3, list["total"])
	first := list["models"].([]any)[0].(map[string]any)
	assert.Equal(t, "DALL-E 3", first["name"])

	w = doJSON(t, r, http.MethodGet, "/v0/ai-models/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "GPT-4o", got["name"])
	assert.InDelta(t, 7.5, got["value_score"], 0.001)
	assert.NotNil(t, got["details"])

	w = doJSON(t, r, http.MethodGet, "/v0/ai-models/8/details", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v0/ai-models/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v0/ai-models/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["categories"])
}

func TestCompareEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/v0/ai-models/compare?ids=1,4", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode(t, w)["models"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Gemini Pro", items[0].(map[string]any)["name"])
	assert.InDelta(t, 8.9, items[0].(map[string]any)["value_score"], 0.001)
	assert.Equal(t, "GPT-4o", items[1].(map[string]any)["name"])

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/v0/ai-models/compare?ids=1", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/v0/ai-models/compare?ids=1,x", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/v0/ai-models/compare?ids=1,2,3,4,5", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/v0/ai-models/compare?ids=1,999", "", nil).Code)
}

func TestNewsEndpoints(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/v0/news", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 3, list["total"])
	_, hasContent := list["news"].([]any)[0].(map[string]any)["content"]
	assert.False(t, hasContent)

	w = doJSON(t, r, http.MethodGet, "/v0/news/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["content"])

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/v0/news/42", "", nil).Code)
}

func TestPostOwnership(t *testing.T) {
	r, conn := newTestServer(t)
	alice := register(t, r, "alice@example.com", "alice")
	bob := register(t, r, "bob@example.com", "bob_2")

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodPost, "/v0/posts", "", gin.H{"title": "x", "content": "0123456789"}).Code)

	w := doJSON(t, r, http.MethodPost, "/v0/posts", alice, gin.H{
		"title":   "첫 글",
		"content": "<p>Hello <b>world</b></p><script>alert(1)</script>",
		"tags":    []string{"GPT", " GPT ", ""},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := int(created["id"].(float64))
	assert.NotContains(t, created["content"], "script")
	assert.Equal(t, []any{"GPT"}, created["tags"])

	path := "/v0/posts/" + strconv.Itoa(id)
	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodPut, path, bob, gin.H{"title": "hijack"}).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(t, r, http.MethodDelete, path, bob, nil).Code)

	w = doJSON(t, r, http.MethodPut, path, alice, gin.H{"title": "수정된 글"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "수정된 글", decode(t, w)["title"])

	w = doJSON(t, r, http.MethodPost, path+"/comments", bob, gin.H{"content": "좋은 글이네요"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	require.NoError(t, conn.First(&post, id).Error)
	assert.EqualValues(t, 1, post.CommentCount)

	w = doJSON(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["views"])

	assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodDelete, path, alice, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, path, "", nil).Code)
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "carol@example.com", "carol")

	w := doJSON(t, r, http.MethodPost, "/v0/auth/register", "", gin.H{"email": "carol@example.com", "username": "carol2", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v0/auth/register", "", gin.H{"email": "dave@example.com", "username": "dave", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v0/auth/register", "", gin.H{"email": "boss@example.com", "username": "boss", "password": "Passw0rd!"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleAdmin, decode(t, w)["user"].(map[string]any)["role"])

	internalsettings.StoreDBConfig(map[string]json.RawMessage{internalsettings.RegistrationEnabledKey: json.RawMessage(`false`)})
	w = doJSON(t, r, http.MethodPost, "/v0/auth/register", "", gin.H{"email": "eve@example.com", "username": "eve", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginWithTOTP(t *testing.T) {
	r, _ := newTestServer(t)
	token := register(t, r, "totp@example.com", "totp_user")

	w := doJSON(t, r, http.MethodPost, "/v0/me/mfa/totp/prepare", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	secret := decode(t, w)["secret"].(string)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodPost, "/v0/me/mfa/totp/confirm", token, gin.H{"secret": secret, "code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/v0/auth/login", "", gin.H{"email": "totp@example.com", "password": "Passw0rd!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, true, decode(t, w)["mfa_required"])

	w = doJSON(t, r, http.MethodPost, "/v0/auth/login", "", gin.H{"email": "totp@example.com", "password": "Passw0rd!", "totp_code": "000000x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, err = totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodPost, "/v0/auth/login", "", gin.H{"email": "totp@example.com", "password": "Passw0rd!", "totp_code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["user"].(map[string]any)["totp_enabled"])

	w = doJSON(t, r, http.MethodPost, "/v0/auth/login", "", gin.H{"email": "totp@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/v0/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/v0/me", "garbage", nil).Code)

	token := register(t, r, "me@example.com", "me_user")
	w := doJSON(t, r, http.MethodPut, "/v0/me", token, gin.H{"avatar_url": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/v0/me", token, gin.H{"avatar_url": "/avatars/me.png"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/avatars/me.png", decode(t, w)["avatar_url"])
}

func TestLikeRateLimit(t *testing.T) {
	r, conn := newTestServer(t)
	internalsettings.StoreDBConfig(map[string]json.RawMessage{internalsettings.RateLimitKey: json.RawMessage(`1`)})

	w := doJSON(t, r, http.MethodPost, "/v0/posts/1/like", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = doJSON(t, r, http.MethodPost, "/v0/posts/1/like", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var post models.Post
	require.NoError(t, conn.First(&post, 1).Error)
	assert.EqualValues(t, 19, post.Likes)
}
