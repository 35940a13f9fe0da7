// Package gate decide se uma área protegida pode ser exibida para o
// estado de autenticação atual.
package gate

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/model"
)

type Outcome int

const (
	Loading Outcome = iota
	LoginRequired
	Forbidden
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case LoginRequired:
		return "login_required"
	case Forbidden:
		return "forbidden"
	case Allow:
		return "allow"
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

const (
	MsgLoading       = "Carregando..."
	MsgLoginRequired = "Você precisa fazer login para acessar esta página."
	MsgForbidden     = "Você não tem permissão para acessar esta página."
)

type Decision struct {
	Outcome Outcome
	Message string
}

// Decide é puro. allowed vazio significa qualquer usuário autenticado.
func Decide(state auth.State, allowed []model.Role) Decision {
	switch state.Phase {
	case auth.Initializing:
		return Decision{Outcome: Loading, Message: MsgLoading}
	case auth.Authenticated:
		if state.User == nil {
			return Decision{Outcome: LoginRequired, Message: MsgLoginRequired}
		}
		if len(allowed) > 0 && !contains(allowed, state.User.Role) {
			return Decision{Outcome: Forbidden, Message: MsgForbidden}
		}
		return Decision{Outcome: Allow}
	default:
		return Decision{Outcome: LoginRequired, Message: MsgLoginRequired}
	}
}

func contains(roles []model.Role, r model.Role) bool {
	for _, allowed := range roles {
		if allowed == r {
			return true
		}
	}
	return false
}

// Source publica o estado de autenticação. *auth.Manager a implementa.
type Source interface {
	State() auth.State
	Subscribe(fn func(auth.State)) (cancel func())
}

// Watch entrega a decisão atual e uma nova a cada mudança de estado.
// Decisões repetidas não são reenviadas. fn pode ser chamada da goroutine
// que mudou o estado.
func Watch(src Source, allowed []model.Role, fn func(Decision)) (cancel func()) {
	var (
		mu   sync.Mutex
		last *Decision
	)
	emit := func(s auth.State) {
		d := Decide(s, allowed)
		mu.Lock()
		if last != nil && *last == d {
			mu.Unlock()
			return
		}
		last = &d
		mu.Unlock()
		fn(d)
	}
	cancel = src.Subscribe(emit)
	emit(src.State())
	return cancel
}

const sourceKey = "gate.source"

// Bind guarda src no contexto do gin para o Require.
func Bind(c *gin.Context, src Source) {
	c.Set(sourceKey, src)
}

func SourceFrom(c *gin.Context) (Source, bool) {
	v, ok := c.Get(sourceKey)
	if !ok {
		return nil, false
	}
	src, ok := v.(Source)
	return src, ok
}

// LoginURL é enviado nas respostas 401 como caminho de volta.
var LoginURL = "/login"

// Require barra a requisição conforme Decide. Sem Source ligada, o estado
// é tratado como Initializing.
func Require(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := auth.State{Phase: auth.Initializing}
		if src, ok := SourceFrom(c); ok {
			state = src.State()
		}
		d := Decide(state, roles)
		switch d.Outcome {
		case Allow:
			c.Next()
		case Loading:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": d.Message})
		case LoginRequired:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": d.Message, "login_url": LoginURL})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Message})
		}
	}
}
