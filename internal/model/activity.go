package model

import (
	"net/url"
	"time"
)

// ActivityLog é uma entrada da trilha de auditoria do backend.
type ActivityLog struct {
	ID         uint      `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     *uint     `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource,omitempty"`
	ResourceID *uint     `json:"resource_id,omitempty"`
	Details    string    `json:"details,omitempty"`
}

// Ações e recursos registrados pelo backend.
const (
	ActionLogin      = "LOGIN"
	ActionLogout     = "LOGOUT"
	ActionRegister   = "REGISTER"
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionUpdateRole = "UPDATE_ROLE"
	ActionActivate   = "ACTIVATE"
	ActionDeactivate = "DEACTIVATE"
	ActionCheckout   = "CHECKOUT"

	ResourceUser     = "USER"
	ResourceProduct  = "PRODUCT"
	ResourceCategory = "CATEGORY"
	ResourceOrder    = "ORDER"
)

// LogFilter filtra GET /auth/logs. Campos vazios não são enviados.
type LogFilter struct {
	Action   string `form:"action"`
	Resource string `form:"resource"`
	Username string `form:"username"`
}

func (f LogFilter) Query() url.Values {
	q := url.Values{}
	if f.Action != "" {
		q.Set("action", f.Action)
	}
	if f.Resource != "" {
		q.Set("resource", f.Resource)
	}
	if f.Username != "" {
		q.Set("username", f.Username)
	}
	return q
}

// Match aplica o filtro localmente, com a mesma semântica do backend.
func (f LogFilter) Match(l ActivityLog) bool {
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	if f.Resource != "" && l.Resource != f.Resource {
		return false
	}
	if f.Username != "" && l.Username != f.Username {
		return false
	}
	return true
}
