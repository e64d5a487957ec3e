package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/forttask/internal/client/config"
	"github.com/dmitrijs2005/forttask/internal/client/screens"
	"github.com/dmitrijs2005/forttask/internal/client/services"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

const pingTimeout = 3 * time.Second

// Screens groups the coordinators the REPL renders.
type Screens struct {
	Overview *screens.Overview
	Events   *screens.Events
	Chores   *screens.Chores
	Bills    *screens.Bills
	Shopping *screens.Shopping
}

type App struct {
	config  *config.Config
	auth    services.AuthService
	vault   services.VaultService
	screens Screens
	log     logging.Logger

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	mu       sync.Mutex
	mode     Mode
	userName string
}

func NewApp(c *config.Config, auth services.AuthService, vault services.VaultService, s Screens, log logging.Logger) *App {
	return &App{
		config:  c,
		auth:    auth,
		vault:   vault,
		screens: s,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		now:     time.Now,
	}
}

// Mode is the last known connectivity mode.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

func (a *App) user() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsLoggedIn()
}

// StartOnlineStatusWatcher probes the backend every interval until ctx is
// done and flips between online and offline mode. A non-positive interval
// turns checking off and leaves the app in disabled mode.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		a.setMode(ctx, ModeDisabled)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	if a.Mode() == ModeDisabled {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.auth.Ping(pctx)
	cancel()

	if err != nil {
		if a.Mode() == ModeOnline {
			a.log.Warn(ctx, "backend unreachable", "error", err)
			a.setMode(ctx, ModeOffline)
		}
		return
	}
	if a.Mode() != ModeOnline {
		a.setMode(ctx, ModeOnline)
	}
}
