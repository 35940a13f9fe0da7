package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

// Gorilla adapta uma sessão do gorilla/sessions ao Store. Os valores
// ficam como string JSON em session.Values e cada escrita salva a sessão
// na hora.
type Gorilla struct {
	mu      sync.Mutex
	session *sessions.Session
	r       *http.Request
	w       http.ResponseWriter
}

// Open carrega a sessão name de r. Um cookie inválido ou expirado não é
// erro: a sessão começa vazia e o problema é só registrado.
func Open(store sessions.Store, name string, r *http.Request, w http.ResponseWriter, log logrus.FieldLogger) (*Gorilla, error) {
	sess, err := store.Get(r, name)
	if err != nil {
		if sess == nil {
			return nil, fmt.Errorf("session: abrir %q: %w", name, err)
		}
		if log != nil {
			log.WithError(err).Warn("sessão ilegível, iniciando uma nova")
		}
	}
	return &Gorilla{session: sess, r: r, w: w}, nil
}

func (g *Gorilla) Get(key string, dst any) (bool, error) {
	g.mu.Lock()
	raw, ok := g.session.Values[key].(string)
	g.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("session: decodificar %q: %w", key, err)
	}
	return true, nil
}

func (g *Gorilla) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: codificar %q: %w", key, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Values[key] = string(raw)
	return g.save()
}

func (g *Gorilla) Remove(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.session.Values[key]; !ok {
		return nil
	}
	delete(g.session.Values, key)
	return g.save()
}

// IsNew informa se a sessão não veio de um cookie válido.
func (g *Gorilla) IsNew() bool { return g.session.IsNew }

func (g *Gorilla) save() error {
	if err := g.session.Save(g.r, g.w); err != nil {
		return fmt.Errorf("session: salvar: %w", err)
	}
	return nil
}
