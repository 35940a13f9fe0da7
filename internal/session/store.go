// Package session guarda o estado do cliente (token, usuário, carrinho)
// entre requisições.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Chaves usadas no Store. Auth usa token e user; o carrinho usa cart.
// client identifica o navegador para os avisos transitórios.
const (
	KeyToken  = "token"
	KeyUser   = "user"
	KeyCart   = "cart"
	KeyClient = "client"
)

// Store é um mapa persistente de chave para valor JSON. Não há
// atomicidade entre chaves diferentes.
type Store interface {
	// Get decodifica o valor de key em dst. Devolve false se a chave não
	// existe.
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Remove(key string) error
}

// Memory é um Store em memória, seguro para uso concorrente.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string, dst any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session: decodificar %q: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: codificar %q: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// SetRaw grava bytes sem codificar, para simular dados corrompidos.
func (m *Memory) SetRaw(key string, raw []byte) {
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
}
