package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/mailer"
	"github.com/xxxsen/driveauth/internal/middleware"
	"github.com/xxxsen/driveauth/internal/repo"
	"github.com/xxxsen/driveauth/internal/service"
)

const (
	successURL = "https://game.example/verified"
	errorURL   = "https://game.example/verificationError"
)

type nopSender struct{}

func (nopSender) Send(ctx context.Context, msg *mailer.Message) error { return nil }

type testServer struct {
	engine  *gin.Engine
	pending *repo.VerificationRepo
}

func newTestServer(t *testing.T, cooldown time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	system := docstore.NewMemory()
	tokens := repo.NewTokenRepo(system)
	accounts := repo.NewAccountRepo(docstore.NewMemory(), system, repo.NewIDAllocator(system, 1), tokens)
	pending := repo.NewVerificationRepo(system)
	verify := service.NewVerificationService(accounts, pending, nopSender{}, service.VerificationOptions{
		LinkBaseURL: "http://localhost:8080",
		Product:     "Whacking Wizards",
	})
	auth := service.NewAuthService(accounts, tokens)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	RegisterRoutes(engine.Group("/"), RouterDeps{
		Auth:           NewAuthHandler(auth),
		Users:          NewUserHandler(verify, auth, successURL, errorURL),
		SignupCooldown: cooldown,
	})
	return &testServer{engine: engine, pending: pending}
}

func (s *testServer) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func (s *testServer) signupAndVerify(t *testing.T, email, username, pw string) {
	t.Helper()
	rec := s.do(http.MethodPost, "/user/"+email+"/"+username+"/"+pw)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())

	item, err := s.pending.Get(context.Background(), email)
	require.NoError(t, err)
	rec = s.do(http.MethodPost, "/user/verify/"+email+"/"+item.Token)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, successURL, rec.Header().Get("Location"))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupVerifyLoginScenario(t *testing.T) {
	s := newTestServer(t, 0)
	s.signupAndVerify(t, "a@x.com", "alice", "pw1")

	const id = "0000000000000001"
	rec := s.do(http.MethodGet, "/auth/"+id+"/alice/pw1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	token, _ := body["authToken"].(string)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)
	require.Equal(t, map[string]interface{}{"email": "a@x.com", "username": "alice", "uuid": id}, body["userData"])

	rec = s.do(http.MethodGet, "/auth/"+id+"/alice/wrong")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Username oder Passwort sind falsch."}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/auth/"+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"userData":{"email":"a@x.com","username":"alice","uuid":"`+id+`"}}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/user/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newTestServer(t, 0)
	s.signupAndVerify(t, "a@x.com", "alice", "pw1")

	rec := s.do(http.MethodPost, "/user/a@x.com/bob/pw2")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Email wurde bereits verwendet."}`, rec.Body.String())
}

func TestSignupRateLimited(t *testing.T) {
	s := newTestServer(t, time.Minute)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/user/a@x.com/alice/pw1").Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/user/b@x.com/bob/pw2").Code)
}

func TestVerifyFailuresRedirectToErrorPage(t *testing.T) {
	s := newTestServer(t, 0)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/user/a@x.com/alice/pw1").Code)

	for _, path := range []string{
		"/user/verify/a@x.com/wrong",
		"/user/verify/nobody@x.com/whatever",
	} {
		rec := s.do(http.MethodGet, path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, errorURL, rec.Header().Get("Location"), path)
	}
}

func TestUnknownIDAndToken(t *testing.T) {
	s := newTestServer(t, 0)

	for _, path := range []string{
		"/user/0000000000000042",
		"/auth/deadbeef",
		"/auth/0000000000000042/alice/pw",
	} {
		rec := s.do(http.MethodGet, path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.JSONEq(t, `{"error":"UUID ist nicht gültig."}`, rec.Body.String(), path)
	}
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t, 0)
	s.signupAndVerify(t, "a@x.com", "alice", "pw1")
	const id = "0000000000000001"

	token, _ := decode(t, s.do(http.MethodGet, "/auth/"+id+"/alice/pw1"))["authToken"].(string)

	rec := s.do(http.MethodDelete, "/user/"+id+"/alice/nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Username oder Passwort sind falsch."}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/user/"+id+"/alice/pw1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/auth/"+token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/user/"+id)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, 0)
	rec := s.do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
