// Package auth mantém o estado de autenticação do cliente: token,
// perfil do usuário e as flags derivadas do papel.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ericoliveiras/vitrine/internal/model"
	"github.com/ericoliveiras/vitrine/internal/session"
)

var (
	// ErrNotAuthenticated é devolvido por operações que exigem login.
	ErrNotAuthenticated = errors.New("auth: usuário não autenticado")
	// ErrSelfAction protege o administrador de alterar a própria conta.
	ErrSelfAction = errors.New("auth: você não pode alterar a própria conta")
)

// Phase é a etapa da máquina de estados de autenticação.
type Phase int

const (
	Initializing Phase = iota
	Unauthenticated
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State é um retrato imutável do estado. User só existe em Authenticated.
type State struct {
	Phase Phase
	User  *model.User
}

// Backend é a parte da API usada pelo Manager. *api.Client a implementa.
type Backend interface {
	Login(ctx context.Context, creds model.LoginRequest) (*model.TokenResponse, error)
	Register(ctx context.Context, data model.RegisterRequest) (*model.User, error)
	Me(ctx context.Context, token string) (*model.User, error)
	ChangePassword(ctx context.Context, token string, data model.PasswordChangeRequest) (*model.MessageResponse, error)
}

type Config struct {
	Backend   Backend
	Store     session.Store
	Hierarchy *Hierarchy
	Logger    logrus.FieldLogger
	Clock     clockwork.Clock
}

// Manager é dono do estado de autenticação. As operações que mudam o
// estado são serializadas; leituras nunca bloqueiam em rede.
type Manager struct {
	backend   Backend
	store     session.Store
	hierarchy *Hierarchy
	log       logrus.FieldLogger
	clock     clockwork.Clock

	op sync.Mutex

	mu        sync.RWMutex
	state     State
	token     string
	listeners map[int]func(State)
	nextID    int
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Backend == nil || cfg.Store == nil {
		return nil, errors.New("auth: Backend e Store são obrigatórios")
	}
	m := &Manager{
		backend:   cfg.Backend,
		store:     cfg.Store,
		hierarchy: cfg.Hierarchy,
		log:       cfg.Logger,
		clock:     cfg.Clock,
		state:     State{Phase: Initializing},
		listeners: make(map[int]func(State)),
	}
	if m.hierarchy == nil {
		m.hierarchy = DefaultHierarchy()
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	return m, nil
}

// Init revalida o token persistido. Falhas nunca chegam ao chamador: o
// token é descartado e o estado vira Unauthenticated. Chamadas depois da
// primeira não fazem nada.
func (m *Manager) Init(ctx context.Context) {
	m.op.Lock()
	defer m.op.Unlock()
	if m.State().Phase != Initializing {
		return
	}

	var token string
	found, err := m.store.Get(session.KeyToken, &token)
	if err != nil {
		m.log.WithError(err).Warn("token persistido ilegível")
	}
	if !found || err != nil || token == "" {
		m.clear()
		return
	}

	if m.expired(token) {
		m.log.Info("token persistido expirado, sessão descartada")
		m.clear()
		return
	}

	user, err := m.backend.Me(ctx, token)
	if err != nil {
		m.log.WithError(err).Warn("revalidação do token falhou, sessão descartada")
		m.clear()
		return
	}
	if err := m.store.Set(session.KeyUser, user); err != nil {
		m.log.WithError(err).Warn("falha ao persistir usuário")
	}
	m.set(State{Phase: Authenticated, User: user}, token)
}

// expired lê o exp do JWT sem verificar a assinatura, só para evitar uma
// chamada de rede condenada. Tokens que não são JWT seguem para o /me.
func (m *Manager) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !m.clock.Now().Before(claims.ExpiresAt.Time)
}

// Login troca as credenciais por um token, persiste o token e só então
// busca o perfil. Se qualquer etapa falhar, nada fica salvo e o estado
// é Unauthenticated.
func (m *Manager) Login(ctx context.Context, creds model.LoginRequest) (*model.User, error) {
	if err := model.Validate(creds); err != nil {
		return nil, err
	}
	m.op.Lock()
	defer m.op.Unlock()
	return m.login(ctx, creds)
}

func (m *Manager) login(ctx context.Context, creds model.LoginRequest) (*model.User, error) {
	tok, err := m.backend.Login(ctx, creds)
	if err != nil {
		m.clear()
		return nil, err
	}
	if err := m.store.Set(session.KeyToken, tok.AccessToken); err != nil {
		m.clear()
		return nil, err
	}
	user, err := m.backend.Me(ctx, tok.AccessToken)
	if err != nil {
		m.clear()
		return nil, err
	}
	if err := m.store.Set(session.KeyUser, user); err != nil {
		m.clear()
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("login realizado")
	m.set(State{Phase: Authenticated, User: user}, tok.AccessToken)
	return user, nil
}

// Register cria a conta e entra com as mesmas credenciais.
func (m *Manager) Register(ctx context.Context, data model.RegisterRequest) (*model.User, error) {
	if err := model.Validate(data); err != nil {
		return nil, err
	}
	m.op.Lock()
	defer m.op.Unlock()
	if _, err := m.backend.Register(ctx, data); err != nil {
		return nil, err
	}
	return m.login(ctx, model.LoginRequest{Username: data.Username, Password: data.Password})
}

// Logout nunca falha; erros do Store são apenas registrados.
func (m *Manager) Logout() {
	m.op.Lock()
	defer m.op.Unlock()
	m.clear()
}

// ChangePassword exige um usuário autenticado.
func (m *Manager) ChangePassword(ctx context.Context, data model.PasswordChangeRequest) (*model.MessageResponse, error) {
	token := m.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if err := model.Validate(data); err != nil {
		return nil, err
	}
	return m.backend.ChangePassword(ctx, token, data)
}

// GuardNotSelf recusa ações administrativas sobre a própria conta.
func (m *Manager) GuardNotSelf(targetID uint) error {
	if u := m.User(); u != nil && u.ID == targetID {
		return ErrSelfAction
	}
	return nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User devolve uma cópia do usuário autenticado, ou nil.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.User == nil {
		return nil
	}
	u := *m.state.User
	return &u
}

// Token só é devolvido em Authenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Phase != Authenticated {
		return ""
	}
	return m.token
}

func (m *Manager) Hierarchy() *Hierarchy { return m.hierarchy }

func (m *Manager) Capabilities() Capabilities {
	return m.hierarchy.Capabilities(m.User())
}

// HasRole testa pertinência exata do papel do usuário em roles.
func (m *Manager) HasRole(roles ...model.Role) bool {
	u := m.User()
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Subscribe registra fn para toda mudança de estado. fn roda fora dos
// locks internos e pode chamar os métodos de leitura.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// clear apaga token e usuário do Store e da memória.
func (m *Manager) clear() {
	if err := m.store.Remove(session.KeyToken); err != nil {
		m.log.WithError(err).Warn("falha ao remover token")
	}
	if err := m.store.Remove(session.KeyUser); err != nil {
		m.log.WithError(err).Warn("falha ao remover usuário")
	}
	m.set(State{Phase: Unauthenticated}, "")
}

func (m *Manager) set(s State, token string) {
	m.mu.Lock()
	changed := m.state.Phase != s.Phase || m.state.User != s.User
	m.state = s
	m.token = token
	listeners := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(s)
	}
}
