package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/presence"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newUserAPI mounts the auth routes. With trackActivity the service also
// records activity for authenticated requests, as it does in production.
func newUserAPI(t *testing.T, repo Repository, trackActivity bool) (*gin.Engine, *service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, sessions := newTestService(repo)
	var toucher middleware.ActivityToucher
	if trackActivity {
		toucher = svc
	}

	engine := gin.New()
	RegisterRoutes(engine.Group("/api"), NewHandler(svc, zap.NewNop()),
		middleware.AuthMiddleware(sessions, toucher, zap.NewNop()),
		middleware.SessionMiddleware(sessions),
		middleware.RequireAdmin())
	return engine, svc
}

func postJSON(engine *gin.Engine, path string, body interface{}, token string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegisterHandler(t *testing.T) {
	repo := new(MockRepository)
	engine, _ := newUserAPI(t, repo, false)

	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, ErrUserNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	w := postJSON(engine, "/api/auth/register", gin.H{"name": "New", "email": "new@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.NotContains(t, w.Body.String(), "password")

	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(&User{ID: 100}, nil)
	w = postJSON(engine, "/api/auth/register", gin.H{"name": "New", "email": "new@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(engine, "/api/auth/register", gin.H{"name": "New", "email": "not-an-email", "password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginHandlerRejectsBadCredentials(t *testing.T) {
	repo := new(MockRepository)
	engine, _ := newUserAPI(t, repo, false)

	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, ErrUserNotFound)

	w := postJSON(engine, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestCurrentUserAndLogout(t *testing.T) {
	repo := new(MockRepository)
	engine, svc := newUserAPI(t, repo, false)

	token, err := svc.sessionSvc.Issue(5, "user")
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, uint64(5)).Return(&User{ID: 5, Name: "John", LastActiveAt: &fixedNow}, nil)
	repo.On("UpdateLastActive", mock.Anything, uint64(5), mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var profile Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "John", profile.Name)
	assert.True(t, profile.Online)

	w = postJSON(engine, "/api/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertCalled(t, "UpdateLastActive", mock.Anything, uint64(5), presence.OfflineAt(fixedNow))
}

func TestListUsersRequiresAdmin(t *testing.T) {
	repo := new(MockRepository)
	engine, svc := newUserAPI(t, repo, false)
	repo.On("List", mock.Anything).Return([]User{{ID: 1}, {ID: 2}}, nil)

	for role, want := range map[string]int{"user": http.StatusUnauthorized, "admin": http.StatusOK} {
		token, err := svc.sessionSvc.Issue(1, role)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

// activityRepository records last-active writes with a little latency, the
// way a real database round trip would.
type activityRepository struct {
	MockRepository
	mu         sync.Mutex
	lastActive *time.Time
}

func (r *activityRepository) UpdateLastActive(_ context.Context, _ uint64, at time.Time) error {
	time.Sleep(time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = &at
	return nil
}

func (r *activityRepository) online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return presence.IsOnline(r.lastActive, fixedNow)
}

func TestLogoutIsNotUndoneByActivityTracking(t *testing.T) {
	repo := &activityRepository{}
	engine, svc := newUserAPI(t, repo, true)
	repo.On("FindByID", mock.Anything, uint64(5)).Return(&User{ID: 5, Name: "John"}, nil)

	token, err := svc.sessionSvc.Issue(5, "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, repo.online, time.Second, 5*time.Millisecond, "authenticated requests mark the user online")

	for i := 0; i < 25; i++ {
		w = postJSON(engine, "/api/auth/logout", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		require.False(t, repo.online(), "logout %d left the user online", i)
	}
	assert.Never(t, repo.online, 100*time.Millisecond, 5*time.Millisecond)
}
