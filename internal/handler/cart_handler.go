package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ericoliveiras/vitrine/internal/cart"
)

// CartHandler agrupa os handlers do carrinho.
type CartHandler struct {
	*Env
}

// CartItemView é um item do carrinho com o subtotal já calculado.
type CartItemView struct {
	cart.LineItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items        []CartItemView  `json:"items"`
	Count        int             `json:"count"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
	Notice       string          `json:"notice,omitempty"`
}

func viewOf(m *cart.Manager) cartView {
	items := m.Items()
	view := cartView{Items: make([]CartItemView, 0, len(items)), Count: m.Count(), Total: m.Total()}
	for _, li := range items {
		view.Items = append(view.Items, CartItemView{LineItem: li, Subtotal: li.Subtotal()})
	}
	view.TotalDisplay = view.Total.StringFixed(2)
	view.Notice, _ = m.Notice()
	return view
}

// ShowCart devolve o conteúdo do carrinho e o aviso pendente, se houver.
func (h *CartHandler) ShowCart(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(cartFrom(c)))
}

// AddToCart busca o produto no backend para ter o estoque atual e só
// então aplica as regras do carrinho.
func (h *CartHandler) AddToCart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	product, err := h.API.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Produto não encontrado ou indisponível.")
		return
	}

	m := cartFrom(c)
	if err := m.Add(*product); err != nil {
		respondError(c, err, "Erro ao salvar o carrinho.")
		return
	}
	notice, _ := m.Notice()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      notice,
		"newCartCount": m.Count(),
	})
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	m := cartFrom(c)
	if err := m.Remove(id); err != nil {
		respondError(c, err, "Erro ao atualizar o carrinho.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Quantidade atualizada.", "newCartCount": m.Count()})
}

// ClearCart remove todos os itens do carrinho.
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := cartFrom(c).Clear(); err != nil {
		respondError(c, err, "Erro ao limpar o carrinho.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Carrinho esvaziado.", "newCartCount": 0})
}

// Checkout envia o carrinho ao backend. Em falha o carrinho fica como
// estava e a mensagem do backend é devolvida.
func (h *CartHandler) Checkout(c *gin.Context) {
	var opts cart.CheckoutOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos."})
		return
	}
	sub := h.API.Session(authFrom(c).Token())
	resp, err := cartFrom(c).Checkout(c.Request.Context(), sub, opts)
	if err != nil {
		respondError(c, err, "Erro ao finalizar compra.")
		return
	}
	c.JSON(http.StatusCreated, resp)
}
