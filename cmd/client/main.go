// Command client is the interactive forttask household client.
package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/dmitrijs2005/forttask/internal/client/cli"
	"github.com/dmitrijs2005/forttask/internal/client/client"
	"github.com/dmitrijs2005/forttask/internal/client/config"
	"github.com/dmitrijs2005/forttask/internal/client/realtime"
	"github.com/dmitrijs2005/forttask/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/forttask/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/forttask/internal/client/screens"
	"github.com/dmitrijs2005/forttask/internal/client/services"
	"github.com/dmitrijs2005/forttask/internal/client/session"
	"github.com/dmitrijs2005/forttask/internal/logging"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	fx.New(
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
		injectInfra(),
		injectRepo(),
		injectService(),
		injectScreens(),
		fx.Provide(cli.NewApp),
		fx.Invoke(runREPL),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		newConfig,
		newLogger,
		newDB,
		session.NewStore,
		newAPIClient,
		newChannel,
	)
}

func injectRepo() fx.Option {
	return fx.Provide(
		func(db *sql.DB) metadata.Repository { return metadata.NewSQLiteRepository(db) },
		func(db *sql.DB) credentials.Repository { return credentials.NewSQLiteRepository(db) },
	)
}

func injectService() fx.Option {
	return fx.Provide(
		services.NewAuthService,
		services.NewVaultService,
		services.NewDataService,
	)
}

func injectScreens() fx.Option {
	return fx.Provide(
		newScreenDeps,
		func(d screens.Deps) cli.Screens {
			return cli.Screens{
				Overview: screens.NewOverview(d),
				Events:   screens.NewEvents(d),
				Chores:   screens.NewChores(d),
				Bills:    screens.NewBills(d),
				Shopping: screens.NewShopping(d),
			}
		},
	)
}

func newConfig() (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.New(cfg.LoggingOptions())
}

func newDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	db, err := client.InitDatabase(context.Background(), cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return db.Close() },
	})
	return db, nil
}

func newAPIClient(cfg *config.Config, store *session.Store, log logging.Logger) (client.Client, error) {
	return client.NewHTTPClient(cfg.ServerURL, store, log, cfg.RequestTimeout)
}

func newChannel(lc fx.Lifecycle, cfg *config.Config, store *session.Store, log logging.Logger) (*realtime.Channel, error) {
	ch, err := realtime.NewChannel(cfg.ServerURL,
		realtime.WithDialer(realtime.WebsocketDialer{Jar: store}),
		realtime.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: ch.Close})
	return ch, nil
}

func newScreenDeps(ch *realtime.Channel, auth services.AuthService, data services.DataService, log logging.Logger) screens.Deps {
	return screens.Deps{
		Channel:    ch,
		Households: auth,
		Data:       data,
		Log:        log,
	}
}

// runREPL starts the interactive loop once the graph is up and stops the
// application when the user leaves it.
func runREPL(lc fx.Lifecycle, sd fx.Shutdowner, app *cli.App) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				app.Root(ctx)
				_ = sd.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
