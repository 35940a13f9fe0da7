// Package apitest sobe em memória um dublê do backend REST da loja para
// os testes do cliente: mesmas rotas, mesmos formatos de erro
// ({"detail": ...}), tokens JWT reais e senhas com bcrypt.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ericoliveiras/vitrine/internal/model"
)

type userRecord struct {
	model.User
	hash []byte
}

type orderRecord struct {
	model.Order
	userID uint
}

type failure struct {
	status int
	detail string
}

// Server é o dublê. Os campos exportados podem ser ajustados antes das
// chamadas.
type Server struct {
	*httptest.Server

	Secret   []byte
	TokenTTL time.Duration
	Now      func() time.Time

	mu         sync.Mutex
	nextID     uint
	users      map[uint]*userRecord
	products   map[uint]*model.Product
	categories []model.Category
	orders     []orderRecord
	logs       []model.ActivityLog
	failures   map[string]failure
	hits       map[string]int
}

// New sobe o servidor. Chame Close ao final.
func New() *Server {
	s := &Server{
		Secret:   []byte("apitest-secret"),
		TokenTTL: time.Hour,
		Now:      time.Now,
		users:    make(map[uint]*userRecord),
		products: make(map[uint]*model.Product),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.inject)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticated)
			r.Get("/me", s.me)
			r.Put("/me/password", s.changePassword)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.authenticated, s.requireRole(model.RoleAdmin))
			r.Get("/users", s.listUsers)
			r.Put("/users/{id}/role", s.updateRole)
			r.Put("/users/{id}/activate", s.setActive(true))
			r.Put("/users/{id}/deactivate", s.setActive(false))
			r.Get("/logs", s.listLogs)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.listProducts)
		r.Get("/{id}", s.getProduct)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticated, s.requireRole(model.RoleVendedor))
			r.Post("/", s.createProduct)
			r.Put("/{id}", s.updateProduct)
			r.Delete("/{id}", s.deleteProduct)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Group(func(r chi.Router) {
			r.Use(s.authenticated, s.requireRole(model.RoleEditor))
			r.Post("/", s.createCategory)
			r.Put("/{id}", s.updateCategory)
			r.Delete("/{id}", s.deleteCategory)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(s.authenticated)
		r.Post("/checkout", s.checkout)
		r.Get("/", s.listOrders)
		r.Get("/{id}", s.getOrder)
	})
	return r
}

// inject conta as chamadas e aplica as falhas programadas com Fail.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		f, failing := s.failures[key]
		s.mu.Unlock()
		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail faz toda chamada method+path responder status com detail até
// Recover.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: detail}
}

func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Hits conta quantas vezes method+path foi chamado.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

func (s *Server) id() uint {
	s.nextID++
	return s.nextID
}

// AddUser cadastra um usuário ativo diretamente.
func (s *Server) AddUser(username, email, password string, role model.Role) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &userRecord{
		User: model.User{ID: s.id(), Username: username, Email: email, Role: role, IsActive: true, CreatedAt: s.Now()},
		hash: hash,
	}
	s.users[u.ID] = u
	return u.User
}

func (s *Server) SetUserActive(id uint, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
	}
}

func (s *Server) User(id uint) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, false
	}
	return u.User, true
}

func (s *Server) AddCategory(name string) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Category{ID: s.id(), Name: name}
	s.categories = append(s.categories, c)
	return c
}

// AddProduct cadastra p com um id novo e devolve a cópia salva.
func (s *Server) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.ProductType == "" {
		p.ProductType = model.ProductPhysical
	}
	p.CreatedAt = s.Now()
	s.products[p.ID] = &p
	return p
}

func (s *Server) SetStock(productID uint, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.StockQuantity = stock
	}
}

func (s *Server) SetPrice(productID uint, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Price = price
	}
}

func (s *Server) Stock(productID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.StockQuantity
	}
	return 0
}

// Orders devolve os pedidos criados, do mais antigo ao mais novo.
func (s *Server) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Order)
	}
	return out
}

// Token emite um token válido para username, como o /auth/login faria.
func (s *Server) Token(username string) string {
	return s.TokenWithTTL(username, s.TokenTTL)
}

// TokenWithTTL aceita ttl negativo para gerar tokens já expirados.
func (s *Server) TokenWithTTL(username string, ttl time.Duration) string {
	s.mu.Lock()
	role := ""
	for _, u := range s.users {
		if u.Username == username {
			role = string(u.Role)
		}
	}
	s.mu.Unlock()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(s.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(s.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) record(user *userRecord, action, resource string, resourceID *uint, details string) {
	entry := model.ActivityLog{
		ID:         s.id(),
		Timestamp:  s.Now(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
		entry.Username = user.Username
	}
	s.logs = append(s.logs, entry)
}

func (s *Server) sortedUsers() []model.User {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
