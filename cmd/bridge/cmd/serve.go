package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/authz"
	"github.com/shrinex/bridge/codec"
	"github.com/shrinex/bridge/config"
	"github.com/shrinex/bridge/pageseeder"
	"github.com/shrinex/bridge/rememberme"
	"github.com/shrinex/bridge/security"
	"github.com/shrinex/bridge/semgt"
	"github.com/shrinex/bridge/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type (
	server struct {
		handler    http.Handler
		repository *semgt.MapSessionRepository
	}

	meBody struct {
		ID             string    `json:"id,omitempty"`
		Username       string    `json:"username"`
		Email          string    `json:"email,omitempty"`
		DisplayName    string    `json:"display_name,omitempty"`
		Roles          []string  `json:"roles"`
		SessionStarted time.Time `json:"session_started"`
		LastAccess     time.Time `json:"last_access"`
	}
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge HTTP server",
	Long:  `Starts the HTTP server exposing the login, logout and session endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		srv, err := newServer(cfg, logger)
		if err != nil {
			return err
		}
		defer srv.Close()

		httpServer := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           srv.handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server",
				zap.String("addr", cfg.ListenAddr),
				zap.String("pageseeder", cfg.PageSeeder.URL))
			serverErrors <- httpServer.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				_ = httpServer.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped")
			return nil
		}
	},
}

// newServer wires the bridge. Missing key material is fatal.
func newServer(cfg config.Config, logger *zap.Logger) (*server, error) {
	client, err := pageseeder.NewClient(cfg.PageSeeder.URL, pageseeder.WithTimeout(cfg.PageSeeder.Timeout))
	if err != nil {
		return nil, err
	}

	storeOpts := []rememberme.Option{rememberme.WithMaxAge(cfg.Auth.RememberMaxAge)}
	sessionOpts := []semgt.Option{
		semgt.WithCookieName(cfg.Session.CookieName),
		semgt.WithTimeout(cfg.Session.Timeout),
		semgt.WithIdleTimeout(cfg.Session.IdleTimeout),
	}
	if cfg.Session.InsecureCookies {
		storeOpts = append(storeOpts, rememberme.WithInsecureCookie())
		sessionOpts = append(sessionOpts, semgt.WithInsecureCookie())
	}

	store, err := rememberme.NewStore(cfg.Auth.KeyDir, storeOpts...)
	if err != nil {
		return nil, err
	}

	authenticator := authc.NewAuthenticator(client,
		authc.WithHardLogout(cfg.Auth.HardLogout),
		authc.WithGroupFilter(cfg.Auth.GroupFilter),
		authc.WithAttributeKeys(cfg.Auth.UsernameAttribute, cfg.Auth.PasswordAttribute),
		authc.WithLogger(logger.Named("authc")),
	)
	authorizer := authz.NewAuthorizer(authz.UserRealm{})
	subject := security.NewBuilder().
		Authenticator(authenticator).
		Authorizer(authorizer).
		Build()

	repository := semgt.NewRepository(codec.JSON, sessionOpts...)
	manager := semgt.NewManager(repository, sessionOpts...)

	webOpts := []web.Option{
		web.WithLogger(logger.Named("web")),
		web.WithLoginPath(cfg.Auth.LoginPath),
		web.WithLogoutPath(cfg.Auth.LogoutPath),
	}
	if cfg.Auth.LogoutImage {
		webOpts = append(webOpts, web.WithLogoutImage())
	}

	handlers := web.NewHandlers(authenticator, manager, webOpts...)
	filter := web.NewRememberMeFilter(store, authenticator, manager, webOpts...)
	throttle := web.NewThrottle(cfg.Login.Rate, cfg.Login.Burst)

	r := chi.NewRouter()
	// the login throttle keys on this address
	if cfg.TrustedProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger(logger.Named("http")))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(manager.Middleware, filter.Wrap)

		r.With(throttle.Wrap).Post(cfg.Auth.LoginPath, handlers.Login)
		r.Get(cfg.Auth.LogoutPath, handlers.Logout)
		r.Post(cfg.Auth.LogoutPath, handlers.Logout)
		r.With(web.RequireRole(manager, authorizer, nil, webOpts...)).Get("/me", handleMe(subject))
	})

	return &server{handler: r, repository: repository}, nil
}

func (s *server) Close() {
	_ = s.repository.StopCleanup()
}

func handleMe(subject security.Subject) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, err := subject.User(ctx)
		if err != nil {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}

		body := meBody{Username: user.Username(), Email: user.Email(), Roles: user.Roles()}
		if member, ok := user.(*authc.Member); ok {
			body.ID = member.ID()
			body.DisplayName = member.DisplayName()
		}

		if session, err := subject.Session(ctx); err == nil {
			body.SessionStarted, _ = session.StartTime(ctx)
			body.LastAccess, _ = session.LastAccessTime(ctx)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = codecEncode(w, body)
	}
}

func codecEncode(w http.ResponseWriter, v any) error {
	data, err := codec.JSON.Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(data))
	return err
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
