package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericoliveiras/vitrine/internal/model"
)

// Checkout envia o carrinho. O total devolvido é o que vale; o total
// calculado no cliente é só informativo.
func (s *Session) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	var resp model.CheckoutResponse
	if err := s.do(ctx, request{method: http.MethodPost, path: "/orders/checkout", body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) Orders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.do(ctx, request{method: http.MethodGet, path: "/orders/"}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Session) Order(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := s.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/orders/%d", id)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
