package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/vitrine/internal/apitest"
	"github.com/ericoliveiras/vitrine/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{BaseURL: baseURL, Logger: quietLogger()})
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestLoginAndMe(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("maria", "maria@example.com", "secret1", model.RoleVendedor)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	token, err := c.Login(ctx, model.LoginRequest{Username: "maria", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	me, err := c.Me(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "maria", me.Username)
	assert.Equal(t, model.RoleVendedor, me.Role)
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("maria", "maria@example.com", "secret1", model.RoleCliente)
	c := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), model.LoginRequest{Username: "maria", Password: "errada"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, "Incorrect username or password", Detail(err, "fallback"))
}

func TestMeWithoutValidToken(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.Me(context.Background(), "lixo")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterDuplicate(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("maria", "maria@example.com", "secret1", model.RoleCliente)
	c := newTestClient(t, srv.URL)

	_, err := c.Register(context.Background(), model.RegisterRequest{
		Username: "maria", Email: "outra@example.com", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, "Username already registered", Detail(err, ""))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := newTestClient(t, url)

	_, err := c.Products(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, "sem conexão", Detail(err, "sem conexão"))
}

func TestMalformedResponseIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestValidationDetailList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","title"],"msg":"field required"}]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.Session("tok").CreateProduct(context.Background(), model.ProductInput{})
	require.Error(t, err)
	assert.Equal(t, "field required", Detail(err, ""))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
}

func TestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.Session("abc").Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get("X-Request-ID"))
	assert.NoError(t, err)

	_, err = c.Products(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
}

func TestCatalog(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	doces := srv.AddCategory("Doces")
	salgados := srv.AddCategory("Salgados")
	srv.AddProduct(model.Product{Title: "Brigadeiro", Price: 2.5, StockQuantity: 10, CategoryID: doces.ID})
	srv.AddProduct(model.Product{Title: "Coxinha", Price: 6, StockQuantity: 3, CategoryID: salgados.ID})
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	all, err := c.Products(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyDoces, err := c.Products(ctx, doces.ID)
	require.NoError(t, err)
	require.Len(t, onlyDoces, 1)
	assert.Equal(t, "Brigadeiro", onlyDoces[0].Title)

	p, err := c.Product(ctx, onlyDoces[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)

	_, err = c.Product(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	cat, err := c.Category(ctx, salgados.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salgados", cat.Name)

	_, err = c.Category(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Categoria não encontrada", Detail(err, ""))
}

func TestCatalogWritesRequireRole(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("cli", "cli@example.com", "secret1", model.RoleCliente)
	srv.AddUser("ven", "ven@example.com", "secret1", model.RoleVendedor)
	cat := srv.AddCategory("Doces")
	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	in := model.ProductInput{Title: "Bolo", Description: "de pote", Price: 12, StockQuantity: 4, ProductType: model.ProductPhysical, CategoryID: cat.ID}

	_, err := c.Session(srv.Token("cli")).CreateProduct(ctx, in)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := c.Session(srv.Token("ven")).CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Bolo", p.Title)

	in.Price = 15
	p, err = c.Session(srv.Token("ven")).UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 15.0, p.Price)

	require.NoError(t, c.Session(srv.Token("ven")).DeleteProduct(ctx, p.ID))
	_, err = c.Product(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// VENDEDOR não gerencia categorias.
	_, err = c.Session(srv.Token("ven")).CreateCategory(ctx, model.CategoryInput{Name: "Bebidas"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCheckoutAndOrders(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("ana", "ana@example.com", "secret1", model.RoleCliente)
	srv.AddUser("bia", "bia@example.com", "secret1", model.RoleCliente)
	p := srv.AddProduct(model.Product{Title: "Cupcake", Price: 7.5, StockQuantity: 5})
	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	ana := c.Session(srv.Token("ana"))

	resp, err := ana.Checkout(ctx, model.CheckoutRequest{
		Items:         []model.OrderItemRequest{{ProductID: p.ID, Quantity: 2}},
		PaymentMethod: model.PaymentPix,
		DeliveryType:  model.DeliveryPickup,
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, resp.TotalAmount)
	assert.Equal(t, 3, srv.Stock(p.ID))

	_, err = ana.Checkout(ctx, model.CheckoutRequest{
		Items:         []model.OrderItemRequest{{ProductID: p.ID, Quantity: 4}},
		PaymentMethod: model.PaymentPix,
		DeliveryType:  model.DeliveryPickup,
	})
	require.Error(t, err)
	assert.Equal(t, "Estoque insuficiente para 'Cupcake'. Pedido: 4, Disponível: 3", Detail(err, ""))

	orders, err := ana.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order, err := ana.Order(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPix, order.PaymentMethod)

	_, err = c.Session(srv.Token("bia")).Order(ctx, resp.OrderID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminOperations(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	admin := srv.AddUser("root", "root@example.com", "secret1", model.RoleAdmin)
	joao := srv.AddUser("joao", "joao@example.com", "secret1", model.RoleCliente)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	s := c.Session(srv.Token("root"))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	u, err := s.UpdateUserRole(ctx, joao.ID, model.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, u.Role)

	u, err = s.SetUserActive(ctx, joao.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = s.SetUserActive(ctx, admin.ID, false)
	require.Error(t, err)
	assert.Equal(t, "You cannot deactivate your own account", Detail(err, ""))

	logs, err := s.ActivityLogs(ctx, model.LogFilter{Action: model.ActionUpdateRole})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "root", logs[0].Username)

	// joao está inativo: o backend recusa antes de checar o papel.
	_, err = c.Session(srv.Token("joao")).Users(ctx)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, "Usuário inativo", Detail(err, ""))
}

func TestChangePassword(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser("ana", "ana@example.com", "secret1", model.RoleCliente)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.ChangePassword(ctx, srv.Token("ana"), model.PasswordChangeRequest{CurrentPassword: "errada", NewPassword: "novasenha"})
	assert.Equal(t, "Senha atual incorreta", Detail(err, ""))

	msg, err := c.ChangePassword(ctx, srv.Token("ana"), model.PasswordChangeRequest{CurrentPassword: "secret1", NewPassword: "novasenha"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Message)

	_, err = c.Login(ctx, model.LoginRequest{Username: "ana", Password: "novasenha"})
	assert.NoError(t, err)
}
