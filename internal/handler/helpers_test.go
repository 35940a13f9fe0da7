package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/apitest"
	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/cart"
	"github.com/ericoliveiras/vitrine/internal/model"
	"github.com/ericoliveiras/vitrine/internal/session"
)

const testSessionName = "vitrine-session"

type testEnv struct {
	srv    *apitest.Server
	router *gin.Engine
	clock  *clockwork.FakeClock
}

// setupTestRouter sobe o dublê do backend e o router com sessão em
// cookie.
func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	return setupTestRouterWith(t, nil)
}

// setupTestRouterWith usa h como hierarquia; nil fica com a padrão.
func setupTestRouterWith(t *testing.T, h *auth.Hierarchy) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := apitest.New()
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	client, err := api.NewClient(api.ClientConfig{BaseURL: srv.URL, Logger: log})
	require.NoError(t, err)

	store, err := session.NewCookieStore(session.Options{Secret: "segredo-de-teste", MaxAge: 3600})
	require.NoError(t, err)

	clk := clockwork.NewFakeClockAt(time.Now())
	router := NewRouter(&Env{
		API:         client,
		Sessions:    store,
		SessionName: testSessionName,
		Hierarchy:   h,
		Clock:       clk,
		Notices:     cart.NewNoticeBoard(clk, cart.DefaultNoticeTTL),
		Log:         log,
	})
	return &testEnv{srv: srv, router: router, clock: clk}
}

// browser guarda os cookies entre requisições, como um navegador.
type browser struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) browser(t *testing.T) *browser {
	return &browser{t: t, env: e, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.env.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) json(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.send(req)
}

func (b *browser) form(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

func (b *browser) login(username, password string) {
	rec := b.form("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

func (e *testEnv) addProduct(title string, price float64, stock int) model.Product {
	return e.srv.AddProduct(model.Product{Title: title, Price: price, StockQuantity: stock})
}
