package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ericoliveiras/vitrine/internal/model"
)

// Login troca usuário e senha por um token. Um 401 vira
// ErrInvalidCredentials (com o *Error original ainda acessível).
func (c *Client) Login(ctx context.Context, creds model.LoginRequest) (*model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var token model.TokenResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", form: form}, &token)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			apiErr.kind = ErrInvalidCredentials
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: resposta de login sem access_token", ErrNetwork)
	}
	return &token, nil
}

type registerBody struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
}

type passwordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (c *Client) Register(ctx context.Context, data model.RegisterRequest) (*model.User, error) {
	body := registerBody{Username: data.Username, Email: data.Email, Password: data.Password, Role: data.Role}
	var user model.User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: body}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me busca o perfil dono do token.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, data model.PasswordChangeRequest) (*model.MessageResponse, error) {
	var msg model.MessageResponse
	body := passwordBody{CurrentPassword: data.CurrentPassword, NewPassword: data.NewPassword}
	err := c.do(ctx, request{method: http.MethodPut, path: "/auth/me/password", token: token, body: body}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Users lista todos os usuários (somente admin).
func (s *Session) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.do(ctx, request{method: http.MethodGet, path: "/auth/users"}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Session) UpdateUserRole(ctx context.Context, userID uint, role model.Role) (*model.User, error) {
	q := url.Values{}
	q.Set("role", string(role))
	var user model.User
	err := s.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/auth/users/%d/role", userID), query: q}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserActive chama /activate ou /deactivate.
func (s *Session) SetUserActive(ctx context.Context, userID uint, active bool) (*model.User, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	var user model.User
	err := s.do(ctx, request{method: http.MethodPut, path: fmt.Sprintf("/auth/users/%d/%s", userID, action)}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Session) ActivityLogs(ctx context.Context, filter model.LogFilter) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	err := s.do(ctx, request{method: http.MethodGet, path: "/auth/logs", query: filter.Query()}, &logs)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
