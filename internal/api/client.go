// Package api é o cliente do backend REST da loja: autenticação,
// catálogo, pedidos e administração.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// ClientConfig configura um Client.
type ClientConfig struct {
	// BaseURL é a raiz do backend, ex.: "http://localhost:8000".
	BaseURL string
	// HTTPClient é usado em todas as chamadas. Se nil, um cliente com
	// Timeout é criado.
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logrus.FieldLogger
}

// Client fala com o backend sem credenciais. Chamadas autenticadas
// passam por Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: BaseURL obrigatório")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("api: BaseURL inválido %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}, nil
}

// Session devolve um cliente que envia o token como Bearer.
func (c *Client) Session(token string) *Session {
	return &Session{client: c, token: token}
}

// request descreve uma chamada. body vira JSON; form, se presente, vira
// application/x-www-form-urlencoded.
type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
	form   url.Values
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		payload = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("api: codificar corpo: %w", err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
	if err != nil {
		return fmt.Errorf("api: montar requisição: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(requestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     req.method,
		"path":       req.path,
		"request_id": requestID,
	})
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("chamada à API falhou")
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: ler resposta: %w", ErrNetwork, err)
	}
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "latency": time.Since(start).String()})

	if resp.StatusCode >= 400 {
		apiErr := newError(resp.StatusCode, body)
		log.WithField("detail", apiErr.Detail).Debug("API respondeu com erro")
		return apiErr
	}
	log.Debug("chamada à API concluída")

	if out == nil || resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: resposta malformada: %w", ErrNetwork, err)
	}
	return nil
}

// Session é um Client autenticado por um token de acesso.
type Session struct {
	client *Client
	token  string
}

func (s *Session) Token() string { return s.token }

func (s *Session) do(ctx context.Context, req request, out any) error {
	req.token = s.token
	return s.client.do(ctx, req, out)
}
