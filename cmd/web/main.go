// /cmd/web/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/ericoliveiras/vitrine/internal/api"
	"github.com/ericoliveiras/vitrine/internal/auth"
	"github.com/ericoliveiras/vitrine/internal/cart"
	"github.com/ericoliveiras/vitrine/internal/config"
	"github.com/ericoliveiras/vitrine/internal/database"
	"github.com/ericoliveiras/vitrine/internal/handler"
	"github.com/ericoliveiras/vitrine/internal/logging"
	"github.com/ericoliveiras/vitrine/internal/session"
)

const purgeInterval = time.Hour

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao carregar a configuração")
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("Configuração de log inválida")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.NewClient(api.ClientConfig{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout, Logger: log})
	if err != nil {
		log.WithError(err).Fatal("Erro ao configurar o cliente da API")
	}

	store, err := sessionStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Erro ao configurar as sessões")
	}

	hierarchy, err := auth.NewHierarchy(cfg.Roles)
	if err != nil {
		log.WithError(err).Fatal("Hierarquia de papéis inválida")
	}

	clk := clockwork.NewRealClock()
	notices := cart.NewNoticeBoard(clk, cfg.NoticeTTL)
	defer notices.Close()

	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(&handler.Env{
		API:         client,
		Sessions:    store,
		SessionName: cfg.SessionName,
		Hierarchy:   hierarchy,
		Clock:       clk,
		Notices:     notices,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.APITimeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Addr, "api": cfg.APIBaseURL, "session": cfg.SessionBackend}).
			Info("Servidor rodando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Erro no servidor")
		}
	}()

	<-ctx.Done()
	log.Info("Encerrando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Erro ao encerrar servidor")
	}
}

// sessionStore escolhe o backend conforme session.backend. No banco, as
// sessões vencidas são apagadas periodicamente até ctx terminar.
func sessionStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (sessions.Store, error) {
	opts := session.Options{
		Secret: cfg.SessionSecret,
		Dir:    cfg.SessionDir,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.SessionSecure,
	}
	switch cfg.SessionBackend {
	case config.BackendFilesystem:
		return session.NewFilesystemStore(opts)
	case config.BackendDatabase:
		db, err := database.ConnectDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		store := database.NewSessionStore(db, session.CookieOptions(opts.MaxAge, opts.Secure), []byte(opts.Secret))
		go purgeLoop(ctx, store, log)
		return store, nil
	default:
		return session.NewCookieStore(opts)
	}
}

func purgeLoop(ctx context.Context, store *database.SessionStore, log logrus.FieldLogger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("falha ao limpar sessões vencidas")
				continue
			}
			if n > 0 {
				log.WithField("removidas", n).Debug("sessões vencidas removidas")
			}
		}
	}
}
