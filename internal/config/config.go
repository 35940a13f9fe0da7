// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config reúne tudo que o servidor precisa para subir.
type Config struct {
	Addr string

	APIBaseURL string
	APITimeout time.Duration

	SessionSecret  string
	SessionName    string
	SessionBackend string
	SessionDir     string
	SessionMaxAge  int
	SessionSecure  bool

	DatabaseURL string

	Roles       []string
	NoticeTTL   time.Duration
	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

// Backends de sessão aceitos.
const (
	BackendCookie     = "cookie"
	BackendFilesystem = "filesystem"
	BackendDatabase   = "database"
)

func defaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("session.name", "vitrine-session")
	v.SetDefault("session.backend", BackendCookie)
	v.SetDefault("session.dir", "")
	v.SetDefault("session.max_age", 7*24*60*60)
	v.SetDefault("session.secure", false)
	v.SetDefault("roles.hierarchy", []string{"CLIENTE", "VENDEDOR", "EDITOR", "ADMIN"})
	v.SetDefault("cart.notice_ttl", 2500*time.Millisecond)
	v.SetDefault("cors.origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load lê, em ordem crescente de prioridade: padrões, arquivo de
// configuração (--config), .env, variáveis de ambiente e flags.
// As variáveis seguem a chave com "." trocado por "_" (API_BASE_URL,
// SESSION_SECRET); database.url também aceita DATABASE_URL.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("web", pflag.ContinueOnError)
	configFile := flags.String("config", "", "arquivo de configuração (yaml, json ou toml)")
	envFile := flags.String("env-file", ".env", "arquivo .env a carregar se existir")
	flags.String("addr", ":8080", "endereço de escuta do servidor")
	flags.String("api.base_url", "http://localhost:8000", "URL base da API REST")
	flags.String("session.backend", BackendCookie, "armazenamento da sessão: cookie, filesystem ou database")
	flags.String("log.level", "info", "nível de log")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("erro ao carregar %s: %w", *envFile, err)
		}
	}

	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("erro ao ler %s: %w", *configFile, err)
		}
	}

	cfg := &Config{
		Addr:           v.GetString("addr"),
		APIBaseURL:     v.GetString("api.base_url"),
		APITimeout:     v.GetDuration("api.timeout"),
		SessionSecret:  v.GetString("session.secret"),
		SessionName:    v.GetString("session.name"),
		SessionBackend: v.GetString("session.backend"),
		SessionDir:     v.GetString("session.dir"),
		SessionMaxAge:  v.GetInt("session.max_age"),
		SessionSecure:  v.GetBool("session.secure"),
		DatabaseURL:    v.GetString("database.url"),
		Roles:          splitList(v.GetStringSlice("roles.hierarchy")),
		NoticeTTL:      v.GetDuration("cart.notice_ttl"),
		CORSOrigins:    splitList(v.GetStringSlice("cors.origins")),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET não definido")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL não definido")
	}
	switch c.SessionBackend {
	case BackendCookie, BackendFilesystem:
	case BackendDatabase:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL não encontrado para session.backend=database")
		}
	default:
		return fmt.Errorf("session.backend inválido: %q", c.SessionBackend)
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("cart.notice_ttl deve ser positivo: %s", c.NoticeTTL)
	}
	return nil
}

// splitList aceita tanto listas do arquivo quanto "A,B,C" vindo do ambiente.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
