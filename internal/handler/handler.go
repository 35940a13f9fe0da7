// Package handler expõe o estado do cliente (sessão, autenticação,
// carrinho) como uma API JSON para o navegador.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/cart"
	"github.com/ericoliveiras/vitrine/internal/gate"
	"github.com/ericoliveiras/vitrine/internal/logging"
	"github.com/ericoliveiras/vitrine/internal/model"
)

// Env reúne as dependências compartilhadas entre requisições. Os
// managers de auth e carrinho são criados por requisição em LoadSession.
type Env struct {
	API         *api.Client
	Sessions    sessions.Store
	SessionName string
	Hierarchy   *auth.Hierarchy
	Clock       clockwork.Clock
	Notices     *cart.NoticeBoard
	Log         logrus.FieldLogger
	CORSOrigins []string
}

const genericError = "Ocorreu um erro interno. Tente novamente."

// NewRouter monta todas as rotas.
func NewRouter(env *Env) *gin.Engine {
	if env.Hierarchy == nil {
		env.Hierarchy = auth.DefaultHierarchy()
	}
	if env.Clock == nil {
		env.Clock = clockwork.NewRealClock()
	}
	if env.Notices == nil {
		env.Notices = cart.NewNoticeBoard(env.Clock, cart.DefaultNoticeTTL)
	}
	if env.Log == nil {
		env.Log = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery(), logging.Gin(env.Log))
	if len(env.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     env.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(env.LoadSession())

	h := env.Hierarchy
	authH := &AuthHandler{Env: env}
	catalogH := &CatalogHandler{Env: env}
	cartH := &CartHandler{Env: env}
	orderH := &OrderHandler{Env: env}
	adminH := &AdminHandler{Env: env}

	router.POST("/login", authH.Login)
	router.POST("/register", authH.Register)
	router.POST("/logout", authH.Logout)

	me := router.Group("/me", gate.Require())
	me.GET("", authH.Me)
	me.PUT("/password", authH.ChangePassword)

	router.GET("/products", catalogH.ListProducts)
	router.GET("/products/:id", catalogH.ShowProduct)
	vendedor := router.Group("/products", gate.Require(h.AtLeast(model.RoleVendedor)...))
	vendedor.POST("", catalogH.CreateProduct)
	vendedor.PUT("/:id", catalogH.UpdateProduct)
	vendedor.DELETE("/:id", catalogH.DeleteProduct)

	router.GET("/categories", catalogH.ListCategories)
	router.GET("/categories/:id", catalogH.ShowCategory)
	editor := router.Group("/categories", gate.Require(h.AtLeast(model.RoleEditor)...))
	editor.POST("", catalogH.CreateCategory)
	editor.PUT("/:id", catalogH.UpdateCategory)
	editor.DELETE("/:id", catalogH.DeleteCategory)

	router.GET("/cart", cartH.ShowCart)
	router.POST("/cart/items/:id", cartH.AddToCart)
	router.DELETE("/cart/items/:id", cartH.RemoveFromCart)
	router.DELETE("/cart", cartH.ClearCart)
	router.POST("/cart/checkout", gate.Require(), cartH.Checkout)

	orders := router.Group("/orders", gate.Require())
	orders.GET("", orderH.ListOrders)
	orders.GET("/:id", orderH.ShowOrder)

	admin := router.Group("/admin", gate.Require(h.AtLeast(model.RoleAdmin)...))
	admin.GET("/users", adminH.ListUsers)
	admin.PUT("/users/:id/role", adminH.UpdateRole)
	admin.PUT("/users/:id/activate", adminH.Activate)
	admin.PUT("/users/:id/deactivate", adminH.Deactivate)
	admin.GET("/logs", adminH.ListLogs)
	admin.GET("/logs/export", adminH.ExportLogs)

	return router
}

// paramID lê o :id da rota; em erro já responde 400.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido."})
		return 0, false
	}
	return uint(id), true
}

// respondError traduz err para status e mensagem. A mensagem do backend
// tem preferência; fallback cobre o resto.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg, "fields": verr.Fields})
	case errors.Is(err, auth.ErrSelfAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Você não pode alterar a sua própria conta."})
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": gate.MsgLoginRequired, "login_url": gate.LoginURL})
	case errors.Is(err, cart.ErrOutOfStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Este produto está esgotado."})
	case errors.Is(err, cart.ErrExceedsStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantidade solicitada excede o estoque disponível."})
	case errors.Is(err, cart.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Carrinho vazio."})
	case errors.Is(err, api.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário ou senha inválidos."})
	case errors.Is(err, api.ErrUnauthorized):
		// Token recusado no meio da requisição: a sessão local cai junto.
		if v, ok := c.Get(ctxAuth); ok {
			v.(*auth.Manager).Logout()
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": gate.MsgLoginRequired, "login_url": gate.LoginURL})
	case errors.Is(err, api.ErrNetwork):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível contatar o servidor. Tente novamente."})
	case api.StatusCode(err) >= 500:
		c.JSON(http.StatusBadGateway, gin.H{"error": api.Detail(err, fallback)})
	case api.StatusCode(err) > 0:
		c.JSON(api.StatusCode(err), gin.H{"error": api.Detail(err, fallback)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
