package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	users := newFakeUserRepo()
	registerUser(t, users, "alice@example.com", "correct-horse", RoleUser)
	r, tokens := newTestRouter(t, users, newFakeProductRepo(), nil)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-horse",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Login successful", body["message"])

	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	claims, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, RoleUser, user["role"])

	cookie := authCookie(t, w)
	assert.Equal(t, tok, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	// cookie lifetime matches the token's own validity window
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestLogin_UniformFailureMessage(t *testing.T) {
	users := newFakeUserRepo()
	registerUser(t, users, "alice@example.com", "correct-horse", RoleUser)
	r, _ := newTestRouter(t, users, newFakeProductRepo(), nil)

	unknown := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	}, "")
	wrongPw := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")

	// Unknown email and wrong password must be indistinguishable.
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
	assert.Equal(t, "Invalid credentials", decodeBody(t, unknown)["message"])
}

func TestLogin_StoreFailureReturns500(t *testing.T) {
	users := &failingUserRepo{fakeUserRepo: newFakeUserRepo(), err: errors.New("connection refused")}
	r, _ := newTestRouter(t, users, newFakeProductRepo(), nil)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "correct-horse",
	}, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decodeBody(t, w)["message"])
}

func TestLogin_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t, newFakeUserRepo(), newFakeProductRepo(), nil)

	for _, body := range []map[string]string{
		{"email": "a@b.c"},
		{"password": "pw"},
		{},
	} {
		w := doJSON(r, http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email and password are required.", decodeBody(t, w)["message"])
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	r, _ := newTestRouter(t, newFakeUserRepo(), newFakeProductRepo(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
}

func TestRegister_Success(t *testing.T) {
	users := newFakeUserRepo()
	r, tokens := newTestRouter(t, users, newFakeProductRepo(), nil)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "new-password",
		"name":     "Bob",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "User registered successfully.", body["message"])

	tok, _ := body["token"].(string)
	claims, err := tokens.Verify(tok)
	require.NoError(t, err)
	// New accounts always get the default role, never an elevated one.
	assert.Equal(t, RoleUser, claims.Role)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "Bob", user["name"])

	cookie := authCookie(t, w)
	assert.Equal(t, tok, cookie.Value)

	// The stored record carries a digest, not the password.
	rec, err := users.FindByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "new-password", rec.PasswordHash)
	assert.True(t, CheckPassword("new-password", rec.PasswordHash))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	registerUser(t, users, "carol@example.com", "original-pw", RoleUser)
	before, err := users.FindByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)

	r, _ := newTestRouter(t, users, newFakeProductRepo(), nil)
	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    "carol@example.com",
		"password": "other-pw",
	}, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User with this email already exists.", decodeBody(t, w)["message"])

	// The existing record is untouched.
	after, err := users.FindByEmail(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestRegister_MissingFields(t *testing.T) {
	r, _ := newTestRouter(t, newFakeUserRepo(), newFakeProductRepo(), nil)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "x@y.z"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// authCookie returns the auth-token cookie set on the response.
func authCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == AuthCookieName {
			return c
		}
	}
	t.Fatalf("auth cookie not set; headers: %v", w.Header())
	return nil
}
