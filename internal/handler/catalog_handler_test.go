package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/model"
)

func TestListProductsIsPublic(t *testing.T) {
	env := setupTestRouter(t)
	cat := env.srv.AddCategory("Cupcakes")
	env.srv.AddProduct(model.Product{Title: "A", Price: 1, StockQuantity: 1, CategoryID: cat.ID})
	env.addProduct("B", 2, 1)
	b := env.browser(t)

	rec := b.json(http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Product](t, rec), 2)

	rec = b.json(http.MethodGet, fmt.Sprintf("/products?category_id=%d", cat.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Product](t, rec), 1)

	rec = b.json(http.MethodGet, "/products?category_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowProduct(t *testing.T) {
	env := setupTestRouter(t)
	p := env.addProduct("Cupcake", 5, 2)
	b := env.browser(t)

	rec := b.json(http.MethodGet, fmt.Sprintf("/products/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cupcake", decode[model.Product](t, rec).Title)

	rec = b.json(http.MethodGet, "/products/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductWritesRequireVendedor(t *testing.T) {
	env := setupTestRouter(t)
	cat := env.srv.AddCategory("Cupcakes")
	input := model.ProductInput{
		Title: "Novo", Description: "desc", Price: 9.9, StockQuantity: 4,
		ProductType: model.ProductPhysical, CategoryID: cat.ID,
	}

	cliente, _ := loggedInAs(t, env, model.RoleCliente)
	rec := cliente.json(http.MethodPost, "/products", input)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	vendedor, _ := loggedInAs(t, env, model.RoleVendedor)
	rec = vendedor.json(http.MethodPost, "/products", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Product](t, rec)
	assert.Equal(t, 4, created.StockQuantity)

	input.Price = 12
	rec = vendedor.json(http.MethodPut, fmt.Sprintf("/products/%d", created.ID), input)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12.0, decode[model.Product](t, rec).Price)

	rec = vendedor.json(http.MethodDelete, fmt.Sprintf("/products/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupTestRouter(t)
	vendedor, _ := loggedInAs(t, env, model.RoleVendedor)

	rec := vendedor.json(http.MethodPost, "/products", model.ProductInput{Title: "Sem preço"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["fields"])
	assert.Zero(t, env.srv.Hits(http.MethodPost, "/products/"))
}

func TestCategories(t *testing.T) {
	env := setupTestRouter(t)
	env.srv.AddCategory("Bolos")

	vendedor, _ := loggedInAs(t, env, model.RoleVendedor)
	rec := vendedor.json(http.MethodPost, "/categories", model.CategoryInput{Name: "Doces"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	editor, _ := loggedInAs(t, env, model.RoleEditor)
	rec = editor.json(http.MethodPost, "/categories", model.CategoryInput{Name: "Doces"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Category](t, rec)

	rec = editor.json(http.MethodPost, "/categories", model.CategoryInput{Name: "Doces"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Categoria já existe", errorOf(t, rec))

	rec = editor.json(http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Category](t, rec), 2)

	rec = editor.json(http.MethodGet, fmt.Sprintf("/categories/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Doces", decode[model.Category](t, rec).Name)

	rec = editor.json(http.MethodDelete, fmt.Sprintf("/categories/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = editor.json(http.MethodGet, fmt.Sprintf("/categories/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThreeTierEditorActsAsVendedor(t *testing.T) {
	h, err := auth.NewHierarchy([]string{"CLIENTE", "VENDEDOR", "ADMIN"})
	require.NoError(t, err)
	env := setupTestRouterWith(t, h)
	cat := env.srv.AddCategory("Cupcakes")
	editor, _ := loggedInAs(t, env, model.RoleEditor)

	rec := editor.json(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	caps := decode[meResponse](t, rec).Capabilities
	assert.True(t, caps.IsVendedor)
	assert.False(t, caps.IsEditor)

	rec = editor.json(http.MethodPost, "/products", model.ProductInput{
		Title: "Novo", Description: "desc", Price: 5, StockQuantity: 1,
		ProductType: model.ProductPhysical, CategoryID: cat.ID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Categorias exigem EDITOR, que aqui equivale a ADMIN.
	rec = editor.json(http.MethodPost, "/categories", model.CategoryInput{Name: "Doces"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.srv.Hits(http.MethodPost, "/categories/"))
}
