package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericoliveiras/vitrine/internal/model"
)

// Products lista o catálogo. categoryID zero lista tudo.
func (c *Client) Products(ctx context.Context, categoryID uint) ([]model.Product, error) {
	var q url.Values
	if categoryID != 0 {
		q = url.Values{"category_id": {strconv.FormatUint(uint64(categoryID), 10)}}
	}
	var products []model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/", query: q}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Product(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/products/%d", id)}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, request{method: http.MethodGet, path: "/categories/"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Category busca uma categoria pelo id. O backend não expõe GET
// /categories/{id}, então a lista inteira é lida e filtrada aqui (O(n)).
func (c *Client) Category(ctx context.Context, id uint) (*model.Category, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, &Error{StatusCode: http.StatusNotFound, Detail: "Categoria não encontrada", kind: ErrNotFound}
}

func (s *Session) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var product model.Product
	if err := s.do(ctx, request{method: http.MethodPost, path: "/products/", body: in}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Session) UpdateProduct(ctx context.Context, id uint, in model.ProductInput) (*model.Product, error) {
	var product model.Product
	if err := s.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/products/%d", id), body: in}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Session) DeleteProduct(ctx context.Context, id uint) error {
	return s.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/products/%d", id)}, nil)
}

func (s *Session) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	var category model.Category
	if err := s.do(ctx, request{method: http.MethodPost, path: "/categories/", body: in}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Session) UpdateCategory(ctx context.Context, id uint, in model.CategoryInput) (*model.Category, error) {
	var category model.Category
	if err := s.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/categories/%d", id), body: in}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Session) DeleteCategory(ctx context.Context, id uint) error {
	return s.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/categories/%d", id)}, nil)
}
