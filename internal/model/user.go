// /internal/model/user.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role é o nível de acesso concedido a um usuário pelo backend.
type Role string

const (
	RoleCliente  Role = "CLIENTE"
	RoleVendedor Role = "VENDEDOR"
	RoleEditor   Role = "EDITOR"
	RoleAdmin    Role = "ADMIN"
)

// CanonicalRoles lista todos os papéis conhecidos, do menor para o maior.
var CanonicalRoles = []Role{RoleCliente, RoleVendedor, RoleEditor, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range CanonicalRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole aceita o nome do papel em qualquer caixa.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("papel desconhecido: %q", s)
	}
	return r, nil
}

// User é o perfil devolvido por /auth/me, /auth/register e /auth/users.
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RegisterRequest é o formulário de cadastro. ConfirmPassword só existe
// para a validação local e nunca é enviado ao backend.
type RegisterRequest struct {
	Username        string `json:"username" form:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"eqfield=Password"`
	Role            Role   `json:"-" form:"-"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" form:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"eqfield=NewPassword"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
