// Command devserver runs a seeded local household backend for the client:
// credentials login, the read endpoints and live update events.
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/forttask/internal/devserver"
	"github.com/dmitrijs2005/forttask/internal/devserver/api"
	"github.com/dmitrijs2005/forttask/internal/devserver/auth"
	"github.com/dmitrijs2005/forttask/internal/devserver/config"
	"github.com/dmitrijs2005/forttask/internal/devserver/hub"
	"github.com/dmitrijs2005/forttask/internal/devserver/store"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

func main() {
	fx.New(
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		fx.Provide(
			newConfig,
			newLogger,
			newStore,
			newSessions,
			newCSRF,
			newHub,
			newAPI,
			newHTTPServer,
		),
		fx.Invoke(startServer),
	).Run()
}

func newConfig() (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.New(cfg.LoggingOptions())
}

func newStore(cfg *config.Config, log logging.Logger) (*store.Store, error) {
	st, err := store.Seed(time.Now(), cfg.SeedPassword, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	log.Info(context.Background(), "store seeded", "users", "alice, bob, carol, dave")
	return st, nil
}

func newSessions(cfg *config.Config, st *store.Store) *api.Sessions {
	return api.NewSessions(st, []byte(cfg.SecretKey), cfg.SessionTTL)
}

func newCSRF(cfg *config.Config) *auth.CSRF {
	return auth.NewCSRF([]byte(cfg.SecretKey))
}

func newHub(cfg *config.Config, s *api.Sessions, log logging.Logger) *hub.Hub {
	return hub.New(s.Household, hub.Options{
		PingInterval: cfg.PingInterval,
		PingTimeout:  cfg.PingTimeout,
	}, log.With("module", "hub"))
}

func newAPI(st *store.Store, s *api.Sessions, csrf *auth.CSRF, h *hub.Hub, log logging.Logger) *api.Server {
	return api.New(st, s, csrf, h, h, log.With("module", "api"))
}

func newHTTPServer(cfg *config.Config, a *api.Server, h *hub.Hub, log logging.Logger) *devserver.HTTPServer {
	return devserver.NewHTTPServer(cfg.Addr, a.Router(), h.Close, log)
}

func startServer(lc fx.Lifecycle, sd fx.Shutdowner, srv *devserver.HTTPServer, log logging.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := srv.Run(ctx); err != nil {
					log.Error(ctx, "server stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
