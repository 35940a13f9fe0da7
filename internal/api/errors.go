package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials indica usuário ou senha incorretos no login.
	ErrInvalidCredentials = errors.New("api: credenciais inválidas")
	ErrUnauthorized       = errors.New("api: não autenticado")
	ErrForbidden          = errors.New("api: acesso negado")
	ErrNotFound           = errors.New("api: não encontrado")
	// ErrNetwork envolve falhas de transporte: conexão, timeout, corpo
	// ilegível.
	ErrNetwork = errors.New("api: falha de rede")
)

// Error é uma resposta de erro do backend. Detail traz a mensagem do
// campo "detail" quando presente. Use errors.As para extraí-la:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) { ... apiErr.Detail ... }
type Error struct {
	StatusCode int
	Detail     string
	kind       error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
}

func (e *Error) Unwrap() error { return e.kind }

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Detail: parseDetail(body)}
	switch status {
	case http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case http.StatusForbidden:
		e.kind = ErrForbidden
	case http.StatusNotFound:
		e.kind = ErrNotFound
	}
	return e
}

// parseDetail entende {"detail": "..."} e a lista de validação
// {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// Detail devolve a mensagem do backend contida em err, ou fallback.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// StatusCode devolve o status HTTP de um *Error, ou 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
