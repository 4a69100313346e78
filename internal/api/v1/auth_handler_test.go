package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzenegnisaban/vision-board-sub000/internal/api/middleware"
	"github.com/janzenegnisaban/vision-board-sub000/internal/api/response"
	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
)

func TestLogin_Success_SetsCookie(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	resp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": "Tester@Example.com", "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var data struct {
		User        model.PublicUser `json:"user"`
		AccessToken string           `json:"access_token"`
	}
	decodeData(t, resp.Body.Bytes(), &data)
	assert.Equal(t, "tester@example.com", data.User.Email)
	assert.NotEmpty(t, data.AccessToken)
	assert.NotContains(t, resp.Body.String(), "password")

	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := findCookieByName(resp.Result().Cookies(), name)
		require.NotNil(t, cookie, name)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
	}
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	wrongPassword := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": "tester@example.com", "password": "nope-nope"}, nil)
	unknownEmail := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": "ghost@example.com", "password": testPassword}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, response.ErrInvalidCredentials, decodeAPIResponse(t, wrongPassword.Body.Bytes()).Code)
}

func TestLogin_InactiveAccount_Returns403(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "sleepy@example.com", model.UserRoleAdmin, false)

	resp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": "sleepy@example.com", "password": testPassword}, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, response.ErrAccountInactive, decodeAPIResponse(t, resp.Body.Bytes()).Code)
}

func TestAuthActionIsValidated(t *testing.T) {
	srv := setupTestServer(t)

	resp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", map[string]any{"action": "dance"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, response.ErrValidation, decodeAPIResponse(t, resp.Body.Bytes()).Code)

	missing := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", map[string]any{"action": "login"}, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	var data struct {
		Fields []string `json:"fields"`
	}
	decodeData(t, missing.Body.Bytes(), &data)
	assert.ElementsMatch(t, []string{"email", "password"}, data.Fields)
}

func TestRegister_CreatesUserAndRejectsDuplicate(t *testing.T) {
	srv := setupTestServer(t)
	payload := map[string]any{"action": "register", "email": "new@example.com", "password": testPassword, "name": "New Person"}

	created := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", payload, nil)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var data struct {
		User        model.PublicUser `json:"user"`
		AccessToken string           `json:"access_token"`
	}
	decodeData(t, created.Body.Bytes(), &data)
	assert.Equal(t, model.UserRoleUser, data.User.Role)
	assert.True(t, data.User.Active)
	assert.NotEmpty(t, data.AccessToken)
	assert.NotContains(t, created.Body.String(), "password")

	access := findCookieByName(created.Result().Cookies(), middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.NotEmpty(t, access.Value)
	assert.True(t, access.HttpOnly)

	me := performJSONRequest(t, srv.router, http.MethodGet, "/api/v1/auth/me", nil, []*http.Cookie{access})
	assert.Equal(t, http.StatusOK, me.Code, me.Body.String())

	duplicate := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", payload, nil)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, response.ErrEmailTaken, decodeAPIResponse(t, duplicate.Body.Bytes()).Code)
}

func TestLogout_AlwaysSucceedsAndClearsCookies(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	anonymous := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", map[string]any{"action": "logout"}, nil)
	assert.Equal(t, http.StatusOK, anonymous.Code)

	cookies := srv.login(t, "tester@example.com")
	resp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth", map[string]any{"action": "logout"}, cookies)
	require.Equal(t, http.StatusOK, resp.Code)
	cleared := findCookieByName(resp.Result().Cookies(), middleware.AccessTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	refresh := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/refresh", nil,
		[]*http.Cookie{findCookieByName(cookies, middleware.RefreshTokenCookie)})
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)
}

func TestRefreshToken_Rotation_OldTokenInvalidated(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	oldRefresh := findCookieByName(srv.login(t, "tester@example.com"), middleware.RefreshTokenCookie)
	require.NotNil(t, oldRefresh)

	refreshResp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/refresh", nil, []*http.Cookie{oldRefresh})
	require.Equal(t, http.StatusOK, refreshResp.Code)

	newRefresh := findCookieByName(refreshResp.Result().Cookies(), middleware.RefreshTokenCookie)
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)

	staleResp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/refresh", nil, []*http.Cookie{oldRefresh})
	assert.Equal(t, http.StatusUnauthorized, staleResp.Code)
	assert.Equal(t, response.ErrUnauthorized, decodeAPIResponse(t, staleResp.Body.Bytes()).Code)
}

func TestSession_ReverifiesAgainstStore(t *testing.T) {
	srv := setupTestServer(t)
	user := srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	guest := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/session", map[string]any{"userId": user.ID.String()}, nil)
	require.Equal(t, http.StatusOK, guest.Code)
	assert.JSONEq(t, `{"user":null}`, string(decodeAPIResponse(t, guest.Body.Bytes()).Data))

	cookies := srv.login(t, "tester@example.com")
	own := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/session", map[string]any{"userId": user.ID.String()}, cookies)
	var data struct {
		User *model.PublicUser `json:"user"`
	}
	decodeData(t, own.Body.Bytes(), &data)
	require.NotNil(t, data.User)
	assert.Equal(t, user.ID, data.User.ID)

	other := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/session", map[string]any{"userId": "someone-else"}, cookies)
	assert.JSONEq(t, `{"user":null}`, string(decodeAPIResponse(t, other.Body.Bytes()).Data))
}

func TestMe_RequiresSession(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)

	resp := performJSONRequest(t, srv.router, http.MethodGet, "/api/v1/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = performJSONRequest(t, srv.router, http.MethodGet, "/api/v1/auth/me", nil, srv.login(t, "tester@example.com"))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "tester@example.com")
}

func TestChangePassword_RevokesRefreshTokens(t *testing.T) {
	srv := setupTestServer(t)
	srv.seedUser(t, "tester@example.com", model.UserRoleUser, true)
	cookies := srv.login(t, "tester@example.com")

	resp := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/password",
		map[string]any{"old_password": testPassword, "new_password": "another-password"}, cookies)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	refresh := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth/refresh", nil,
		[]*http.Cookie{findCookieByName(cookies, middleware.RefreshTokenCookie)})
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)

	relogin := performJSONRequest(t, srv.router, http.MethodPost, "/api/v1/auth",
		map[string]any{"action": "login", "email": "tester@example.com", "password": "another-password"}, nil)
	assert.Equal(t, http.StatusOK, relogin.Code)
}
