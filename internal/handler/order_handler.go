package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	*Env
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.API.Session(authFrom(c).Token()).Orders(c.Request.Context())
	if err != nil {
		respondError(c, err, "Erro ao buscar pedidos.")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ShowOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.API.Session(authFrom(c).Token()).Order(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Pedido não encontrado.")
		return
	}
	c.JSON(http.StatusOK, order)
}
