package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ericoliveiras/vitrine/internal/model"
)

// checkout reproduz o backend: valida estoque de todos os itens antes de
// baixar qualquer um, e registra o pedido já como pago.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "corpo inválido")
		return
	}
	if req.DeliveryType == model.DeliveryShipping && req.ShippingAddress == nil {
		writeDetail(w, http.StatusBadRequest, "Endereço de entrega obrigatório")
		return
	}
	user := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			writeDetail(w, http.StatusUnprocessableEntity, "quantidade inválida")
			return
		}
		p, ok := s.products[item.ProductID]
		if !ok {
			writeDetail(w, http.StatusNotFound, fmt.Sprintf("Produto %d não encontrado", item.ProductID))
			return
		}
		if p.StockQuantity < item.Quantity {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf(
				"Estoque insuficiente para '%s'. Pedido: %d, Disponível: %d", p.Title, item.Quantity, p.StockQuantity))
			return
		}
		total += p.Price * float64(item.Quantity)
		oi := model.OrderItem{ProductID: p.ID, Quantity: item.Quantity, UnitPrice: p.Price}
		if p.ProductType == model.ProductDigital {
			oi.DownloadURL = fmt.Sprintf("/downloads/%d", p.ID)
		}
		items = append(items, oi)
	}
	for _, item := range req.Items {
		s.products[item.ProductID].StockQuantity -= item.Quantity
	}

	order := orderRecord{
		Order: model.Order{
			ID:              s.id(),
			Status:          "PAID",
			TotalAmount:     total,
			PaymentMethod:   req.PaymentMethod,
			DeliveryType:    req.DeliveryType,
			ShippingAddress: req.ShippingAddress,
			CreatedAt:       s.Now(),
			Items:           items,
		},
		userID: user.ID,
	}
	s.orders = append(s.orders, order)
	s.record(user, model.ActionCheckout, model.ResourceOrder, &order.ID, fmt.Sprintf("total=%.2f", total))

	writeJSON(w, http.StatusOK, model.CheckoutResponse{
		OrderID:     order.ID,
		Message:     "Pedido realizado com sucesso (pagamento mockado).",
		TotalAmount: total,
	})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.mu.Lock()
	out := []model.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].userID == user.ID {
			out = append(out, s.orders[i].Order)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID != id {
			continue
		}
		if o.userID != user.ID {
			writeDetail(w, http.StatusForbidden, "Acesso negado")
			return
		}
		writeJSON(w, http.StatusOK, o.Order)
		return
	}
	writeDetail(w, http.StatusNotFound, "Pedido não encontrado")
}
