package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/apitest"
	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/model"
	"github.com/ericoliveiras/vitrine/internal/session"
)

var adminOnly = []model.Role{model.RoleAdmin}

func authenticated(role model.Role) auth.State {
	return auth.State{Phase: auth.Authenticated, User: &model.User{ID: 1, Username: "u", Role: role}}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name    string
		state   auth.State
		allowed []model.Role
		want    Outcome
	}{
		{"inicializando", auth.State{Phase: auth.Initializing}, adminOnly, Loading},
		{"anônimo pede admin", auth.State{Phase: auth.Unauthenticated}, adminOnly, LoginRequired},
		{"cliente pede admin", authenticated(model.RoleCliente), adminOnly, Forbidden},
		{"admin pede admin", authenticated(model.RoleAdmin), adminOnly, Allow},
		{"sem lista", authenticated(model.RoleCliente), nil, Allow},
		{"lista vazia", authenticated(model.RoleCliente), []model.Role{}, Allow},
		{"anônimo sem lista", auth.State{Phase: auth.Unauthenticated}, nil, LoginRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.state, tc.allowed).Outcome)
		})
	}
}

func TestDecideMessagesAreDistinct(t *testing.T) {
	login := Decide(auth.State{Phase: auth.Unauthenticated}, adminOnly)
	denied := Decide(authenticated(model.RoleCliente), adminOnly)
	loading := Decide(auth.State{Phase: auth.Initializing}, adminOnly)

	assert.Equal(t, MsgLoginRequired, login.Message)
	assert.Equal(t, MsgForbidden, denied.Message)
	assert.NotEqual(t, login.Message, denied.Message)
	assert.NotEqual(t, loading.Message, denied.Message)
}

func newManager(t *testing.T) (*auth.Manager, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	mgr, err := auth.NewManager(auth.Config{Backend: client, Store: session.NewMemory()})
	require.NoError(t, err)
	return mgr, srv
}

func TestWatchReevaluates(t *testing.T) {
	mgr, srv := newManager(t)
	srv.AddUser("cli", "cli@example.com", "secret1", model.RoleCliente)
	srv.AddUser("root", "root@example.com", "secret1", model.RoleAdmin)
	ctx := context.Background()

	var got []Outcome
	cancel := Watch(mgr, adminOnly, func(d Decision) { got = append(got, d.Outcome) })
	defer cancel()

	mgr.Init(ctx)
	_, err := mgr.Login(ctx, model.LoginRequest{Username: "cli", Password: "secret1"})
	require.NoError(t, err)
	mgr.Logout()
	_, err = mgr.Login(ctx, model.LoginRequest{Username: "root", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, []Outcome{Loading, LoginRequired, Forbidden, LoginRequired, Allow}, got)
}

func TestWatchCancel(t *testing.T) {
	mgr, srv := newManager(t)
	srv.AddUser("cli", "cli@example.com", "secret1", model.RoleCliente)

	calls := 0
	cancel := Watch(mgr, nil, func(Decision) { calls++ })
	cancel()
	mgr.Init(context.Background())
	assert.Equal(t, 1, calls)
}

type fixedSource struct{ state auth.State }

func (f fixedSource) State() auth.State                 { return f.state }
func (f fixedSource) Subscribe(func(auth.State)) func() { return func() {} }

// flappingSource troca de estado a partir de outra goroutine logo após o
// Subscribe, concorrendo com a primeira avaliação do Watch.
type flappingSource struct {
	mu    sync.Mutex
	state auth.State
	done  chan struct{}
}

func (f *flappingSource) State() auth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *flappingSource) Subscribe(fn func(auth.State)) func() {
	go func() {
		defer close(f.done)
		for i := 0; i < 100; i++ {
			next := auth.State{Phase: auth.Unauthenticated}
			if i%2 == 0 {
				next = authenticated(model.RoleAdmin)
			}
			f.mu.Lock()
			f.state = next
			f.mu.Unlock()
			fn(next)
		}
	}()
	return func() {}
}

func TestWatchConcurrentStateChanges(t *testing.T) {
	src := &flappingSource{state: auth.State{Phase: auth.Initializing}, done: make(chan struct{})}

	var (
		mu  sync.Mutex
		got []Outcome
	)
	cancel := Watch(src, adminOnly, func(d Decision) {
		mu.Lock()
		got = append(got, d.Outcome)
		mu.Unlock()
	})
	defer cancel()

	select {
	case <-src.done:
	case <-time.After(5 * time.Second):
		t.Fatal("estados não terminaram de mudar")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Contains(t, got, Allow)
	assert.Contains(t, got, LoginRequired)
}

func serve(src Source, roles ...model.Role) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if src != nil {
			Bind(c, src)
		}
		c.Next()
	})
	r.GET("/area", Require(roles...), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/area", nil))
	return rec
}

func TestRequireMiddleware(t *testing.T) {
	rec := serve(nil, model.RoleAdmin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = serve(fixedSource{auth.State{Phase: auth.Unauthenticated}}, model.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MsgLoginRequired, body["error"])
	assert.Equal(t, "/login", body["login_url"])

	rec = serve(fixedSource{authenticated(model.RoleCliente)}, model.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, MsgForbidden, body["error"])

	rec = serve(fixedSource{authenticated(model.RoleAdmin)}, model.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(fixedSource{authenticated(model.RoleCliente)})
	assert.Equal(t, http.StatusOK, rec.Code)
}
