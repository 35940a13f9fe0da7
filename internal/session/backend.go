package session

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

// Options configura o backend gorilla de cookie ou de arquivos.
type Options struct {
	Secret string
	// Dir é usado apenas pelo backend de arquivos; vazio usa o diretório
	// temporário do sistema.
	Dir    string
	MaxAge int
	Secure bool
}

// CookieOptions devolve as opções de cookie comuns a todos os backends.
func CookieOptions(maxAge int, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore guarda tudo no próprio cookie, assinado com Secret.
// Cookies passam de 4KB com carrinhos grandes; nesse caso use o backend
// de arquivos ou de banco.
func NewCookieStore(opts Options) (*sessions.CookieStore, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("session: segredo obrigatório")
	}
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = CookieOptions(opts.MaxAge, opts.Secure)
	return store, nil
}

// NewFilesystemStore guarda os valores em disco e só o id no cookie.
func NewFilesystemStore(opts Options) (*sessions.FilesystemStore, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("session: segredo obrigatório")
	}
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: criar diretório %q: %w", dir, err)
	}
	store := sessions.NewFilesystemStore(dir, []byte(opts.Secret))
	// Sem limite: o carrinho inteiro cabe no arquivo.
	store.MaxLength(0)
	store.Options = CookieOptions(opts.MaxAge, opts.Secure)
	return store, nil
}
