package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/cart"
	"github.com/ericoliveiras/vitrine/internal/gate"
	"github.com/ericoliveiras/vitrine/internal/session"
)

const (
	ctxAuth = "auth"
	ctxCart = "cart"
)

// LoadSession abre a sessão do navegador e monta os managers da
// requisição. O auth é revalidado aqui, antes de qualquer gate.
func (e *Env) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		log := e.Log.WithField("path", c.Request.URL.Path)

		store, err := session.Open(e.Sessions, e.SessionName, c.Request, c.Writer, log)
		if err != nil {
			log.WithError(err).Error("falha ao abrir sessão")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erro ao iniciar a sessão."})
			return
		}

		authMgr, err := auth.NewManager(auth.Config{
			Backend:   e.API,
			Store:     store,
			Hierarchy: e.Hierarchy,
			Logger:    log,
			Clock:     e.Clock,
		})
		if err != nil {
			log.WithError(err).Error("falha ao criar auth manager")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": genericError})
			return
		}
		authMgr.Init(c.Request.Context())
		gate.Bind(c, authMgr)

		cartMgr := cart.NewManager(cart.Config{
			Store:  store,
			Logger: log,
			Board:  e.Notices,
			Owner:  clientID(store, log),
		})
		defer cartMgr.Close()

		c.Set(ctxAuth, authMgr)
		c.Set(ctxCart, cartMgr)
		c.Next()
	}
}

// clientID identifica o navegador. O id só é gravado quando ainda não
// existe.
func clientID(store session.Store, log logrus.FieldLogger) string {
	var id string
	if found, err := store.Get(session.KeyClient, &id); found && err == nil && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := store.Set(session.KeyClient, id); err != nil {
		log.WithError(err).Warn("falha ao gravar id do navegador")
	}
	return id
}

func authFrom(c *gin.Context) *auth.Manager {
	return c.MustGet(ctxAuth).(*auth.Manager)
}

func cartFrom(c *gin.Context) *cart.Manager {
	return c.MustGet(ctxCart).(*cart.Manager)
}
