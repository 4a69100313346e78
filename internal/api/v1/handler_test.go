package v1

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/janzenegnisaban/vision-board-sub000/internal/event"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository/memstore"
	"github.com/janzenegnisaban/vision-board-sub000/internal/service"
	"github.com/janzenegnisaban/vision-board-sub000/internal/sse"
	systemlog "github.com/janzenegnisaban/vision-board-sub000/pkg/logger"
)

const testPassword = "password123"

type apiResponse struct {
	Code       int             `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"pagination"`
}

var (
	handlerKeyOnce sync.Once
	handlerKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	handlerKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		handlerKey = key
	})
	return handlerKey
}

type testServer struct {
	router *gin.Engine
	store  *repository.Store
	db     memstore.DB
	auth   *service.AuthService
	logs   *systemlog.SystemLogStore
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, db := memstore.New()
	bus := event.NewBus()
	hub := sse.NewHub(zap.NewNop())
	t.Cleanup(hub.Close)
	sse.Bridge(bus, hub, zap.NewNop())

	logs := systemlog.NewSystemLogStore(100)
	logger := systemlog.WrapZapLogger(zaptest.NewLogger(t), logs)

	auth := service.NewAuthService(store.Users, store.Sessions, store.Audit, testSigningKey(t), service.WithBcryptCost(bcrypt.MinCost))

	router := gin.New()
	group := router.Group("/api/v1")
	RegisterAuthRoutes(group, auth, AuthRouteOptions{CookieSecure: true})
	RegisterAnnouncementRoutes(group, service.NewAnnouncementService(store.Announcements, store.Audit, bus, logger), auth)
	RegisterEventRoutes(group, service.NewEventService(store.Events, store.Audit, bus, logger), auth)
	RegisterStreamRoutes(group, hub, auth, nil, logger)
	RegisterEngagementRoutes(group, service.NewCommentService(store, bus, logger), service.NewReactionService(store, bus, logger), auth, nil)
	RegisterUserRoutes(group, service.NewUserService(store, auth, bus, logger), auth)
	RegisterAnalyticsRoutes(group, service.NewAnalyticsService(store.Analytics, logger), auth)
	RegisterDashboardRoutes(group, service.NewDashboardService(store, logger), auth)
	RegisterAuditRoutes(group, service.NewAuditService(store.Audit), auth)
	RegisterSystemRoutes(group, logs, auth)

	logger.Info("test server ready")

	return &testServer{router: router, store: store, db: db, auth: auth, logs: logs}
}

func (s *testServer) seedUser(t *testing.T, email string, role model.UserRole, active bool) *model.User {
	t.Helper()
	hash, err := s.auth.HashPassword(testPassword)
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "Test " + string(role), Role: role, Active: active}
	require.NoError(t, s.store.Users.Create(context.Background(), user))
	return user
}

// login signs in and returns the session cookies.
func (s *testServer) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	resp := performJSONRequest(t, s.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return resp.Result().Cookies()
}

func performJSONRequest(
	t *testing.T,
	router http.Handler,
	method string,
	path string,
	payload map[string]any,
	cookies []*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var bodyBytes []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		bodyBytes = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		if cookie != nil {
			req.AddCookie(cookie)
		}
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeAPIResponse(t *testing.T, raw []byte) apiResponse {
	t.Helper()

	var resp apiResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func decodeData(t *testing.T, raw []byte, dst any) {
	t.Helper()
	body := decodeAPIResponse(t, raw)
	require.NoError(t, json.Unmarshal(body.Data, dst))
}

func findCookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
