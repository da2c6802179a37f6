package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"attractions-web/internal/domain"
	"attractions-web/internal/gateway"
	"attractions-web/internal/middleware"
	"attractions-web/internal/service"
	"attractions-web/internal/session"
	"attractions-web/internal/testutil"
)

type testEnv struct {
	api       *testutil.FakeAPI
	registry  *service.Registry
	publisher *testutil.MockBookmarkPublisher
	router    chi.Router
}

func newTestEnv(t *testing.T, configure ...func(*RouterConfig)) *testEnv {
	t.Helper()

	env := &testEnv{
		api:       testutil.NewFakeAPI(t),
		publisher: testutil.NewMockBookmarkPublisher(),
	}

	client, err := gateway.NewClient(env.api.BaseURL(), gateway.WithRetry(1, 0))
	require.NoError(t, err)

	cfg := RouterConfig{PublicURL: "https://attractions.example/"}
	for _, fn := range configure {
		fn(&cfg)
	}

	var sink service.EventSink
	if cfg.Hub != nil {
		sink = cfg.Hub
	}
	env.registry = service.NewRegistry(
		func(store domain.SessionStore) service.RemoteAPI { return client.WithSession(store) },
		func(string) (domain.SessionStore, error) { return session.NewMemoryStore(), nil },
		sink,
		env.publisher,
	)

	validator, err := middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig(OpenAPISpec))
	require.NoError(t, err)

	cfg.Workspaces = env.registry
	if cfg.Validator == nil {
		cfg.Validator = validator
	}
	env.router = NewRouter(cfg)
	return env
}

func newProfile() string {
	return uuid.NewString()
}

// do sends a request as profileID through the full router.
func (e *testEnv) do(t *testing.T, method, target, profileID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := testutil.NewJSONRequest(t, method, target, body)
	if profileID != "" {
		req.AddCookie(&http.Cookie{Name: middleware.ProfileCookie, Value: profileID})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login registers username on the fake API and logs profileID in as that user.
func (e *testEnv) login(t *testing.T, profileID, username string) int {
	t.Helper()
	userID := e.api.AddUser(username, "secret")
	w := e.do(t, http.MethodPost, "/api/auth/login", profileID, CredentialsRequest{Username: username, Password: "secret"})
	testutil.AssertStatusCode(t, w, http.StatusOK)
	return userID
}

func (e *testEnv) workspace(t *testing.T, profileID string) *service.Workspace {
	t.Helper()
	ws, err := e.registry.Get(profileID)
	require.NoError(t, err)
	return ws
}
