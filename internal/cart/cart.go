// Package cart mantém o carrinho do cliente e aplica as regras de
// estoque a cada mudança.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ericoliveiras/vitrine/internal/model"
	"github.com/ericoliveiras/vitrine/internal/session"
)

var (
	ErrOutOfStock   = errors.New("cart: produto esgotado")
	ErrExceedsStock = errors.New("cart: quantidade solicitada excede o estoque disponível")
	ErrEmptyCart    = errors.New("cart: carrinho vazio")
)

// DefaultNoticeTTL é quanto tempo o aviso de item adicionado fica visível.
const DefaultNoticeTTL = 2500 * time.Millisecond

// Snapshot é a cópia do produto feita no primeiro Add. Preço e título não
// são atualizados depois disso; o backend decide o valor final no
// checkout.
type Snapshot struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Price         float64           `json:"price"`
	StockQuantity int               `json:"stock_quantity"`
	ImageURL      string            `json:"image_url,omitempty"`
	ProductType   model.ProductType `json:"product_type"`
}

// LineItem serializa achatado, como um produto com quantity.
type LineItem struct {
	Snapshot
	Quantity int `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func snapshotOf(p model.Product) Snapshot {
	return Snapshot{
		ID:            p.ID,
		Title:         p.Title,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		ProductType:   p.ProductType,
	}
}

type Config struct {
	Store     session.Store
	Clock     clockwork.Clock
	NoticeTTL time.Duration
	Logger    logrus.FieldLogger
	// Board, se definido, guarda os avisos sob Owner e sobrevive ao
	// Manager. Sem Board o Manager usa um quadro próprio.
	Board *NoticeBoard
	Owner string
}

// Manager é dono dos itens do carrinho. Toda mutação regrava o carrinho
// inteiro no Store antes de retornar.
type Manager struct {
	store     session.Store
	log       logrus.FieldLogger
	board     *NoticeBoard
	owner     string
	ownsBoard bool

	mu    sync.Mutex
	items []LineItem
}

// NewManager carrega o carrinho persistido. Dados ilegíveis viram um
// carrinho vazio.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		store: cfg.Store,
		log:   cfg.Logger,
		board: cfg.Board,
		owner: cfg.Owner,
	}
	if m.board == nil {
		m.board = NewNoticeBoard(cfg.Clock, cfg.NoticeTTL)
		m.ownsBoard = true
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	m.items = m.load()
	return m
}

func (m *Manager) load() []LineItem {
	var stored []LineItem
	found, err := m.store.Get(session.KeyCart, &stored)
	if err != nil {
		m.log.WithError(err).Warn("carrinho persistido ilegível, começando vazio")
		return nil
	}
	if !found {
		return nil
	}
	items := make([]LineItem, 0, len(stored))
	seen := make(map[uint]bool, len(stored))
	for _, li := range stored {
		if li.Quantity < 1 || seen[li.ID] {
			m.log.WithField("product_id", li.ID).Warn("item inválido descartado do carrinho")
			continue
		}
		seen[li.ID] = true
		items = append(items, li)
	}
	return items
}

// Add coloca uma unidade de p no carrinho. O teto é o estoque de p, que
// deve vir fresco do backend.
func (m *Manager) Add(p model.Product) error {
	if p.StockQuantity <= 0 {
		return ErrOutOfStock
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.items
	next := append([]LineItem(nil), m.items...)
	if i := m.index(p.ID); i >= 0 {
		if next[i].Quantity >= p.StockQuantity {
			return ErrExceedsStock
		}
		next[i].Quantity++
		next[i].StockQuantity = p.StockQuantity
	} else {
		next = append(next, LineItem{Snapshot: snapshotOf(p), Quantity: 1})
	}

	m.items = next
	if err := m.persist(); err != nil {
		m.items = prev
		return err
	}
	m.board.Post(m.owner, fmt.Sprintf("%s adicionado ao carrinho", p.Title))
	return nil
}

// Remove tira uma unidade do produto; o item some ao chegar a zero.
// Produto ausente não é erro.
func (m *Manager) Remove(productID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(productID)
	if i < 0 {
		return nil
	}
	prev := m.items
	next := append([]LineItem(nil), m.items...)
	if next[i].Quantity > 1 {
		next[i].Quantity--
	} else {
		next = append(next[:i], next[i+1:]...)
	}
	m.items = next
	if err := m.persist(); err != nil {
		m.items = prev
		return err
	}
	return nil
}

func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.items
	m.items = nil
	if err := m.persist(); err != nil {
		m.items = prev
		return err
	}
	return nil
}

// Items devolve uma cópia, na ordem de inserção.
func (m *Manager) Items() []LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LineItem(nil), m.items...)
}

// Count soma as quantidades.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, li := range m.items {
		n += li.Quantity
	}
	return n
}

// Total é a soma exata de preço × quantidade. Arredonde só ao exibir.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return total(m.items)
}

func total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

// Notice devolve o aviso transitório, se ainda estiver valendo.
func (m *Manager) Notice() (string, bool) {
	return m.board.Get(m.owner)
}

// Close cancela a limpeza pendente do aviso quando o quadro é do próprio
// Manager. Um Board compartilhado continua valendo.
func (m *Manager) Close() {
	if m.ownsBoard {
		m.board.Close()
	}
}

func (m *Manager) index(productID uint) int {
	for i, li := range m.items {
		if li.ID == productID {
			return i
		}
	}
	return -1
}

func (m *Manager) persist() error {
	items := m.items
	if items == nil {
		items = []LineItem{}
	}
	if err := m.store.Set(session.KeyCart, items); err != nil {
		m.log.WithError(err).Error("falha ao persistir carrinho")
		return fmt.Errorf("cart: persistir: %w", err)
	}
	return nil
}

// Submitter envia o pedido. *api.Session o implementa.
type Submitter interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResponse, error)
}

type CheckoutOptions struct {
	PaymentMethod   model.PaymentMethod `json:"payment_method" form:"payment_method"`
	DeliveryType    model.DeliveryType  `json:"delivery_type" form:"delivery_type"`
	ShippingAddress *model.Address      `json:"shipping_address,omitempty"`
}

// Request monta o corpo do checkout a partir do carrinho atual.
func (m *Manager) Request(opts CheckoutOptions) model.CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	req := model.CheckoutRequest{
		Items:           make([]model.OrderItemRequest, 0, len(m.items)),
		PaymentMethod:   opts.PaymentMethod,
		DeliveryType:    opts.DeliveryType,
		ShippingAddress: opts.ShippingAddress,
	}
	for _, li := range m.items {
		req.Items = append(req.Items, model.OrderItemRequest{ProductID: li.ID, Quantity: li.Quantity})
	}
	return req
}

// Checkout valida localmente, envia o carrinho e o esvazia em caso de
// sucesso. Em falha o carrinho fica intacto e o erro do backend é
// devolvido embrulhado (use api.Detail para a mensagem).
func (m *Manager) Checkout(ctx context.Context, sub Submitter, opts CheckoutOptions) (*model.CheckoutResponse, error) {
	req := m.Request(opts)
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := model.Validate(req); err != nil {
		return nil, err
	}

	resp, err := sub.Checkout(ctx, req)
	if err != nil {
		m.log.WithError(err).WithField("items", len(req.Items)).Warn("checkout recusado")
		return nil, fmt.Errorf("cart: checkout: %w", err)
	}

	if err := m.Clear(); err != nil {
		// O pedido já existe; só o carrinho local ficou para trás.
		m.log.WithError(err).WithField("order_id", resp.OrderID).Error("pedido criado mas o carrinho não foi limpo")
	}
	m.log.WithFields(logrus.Fields{"order_id": resp.OrderID, "total": resp.TotalAmount}).Info("checkout concluído")
	return resp, nil
}
