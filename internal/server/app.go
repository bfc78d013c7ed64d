// Package server initializes and runs the simplesocial server.
// It restores the social graph from the last snapshot, wires the session,
// friend-request, notification and keep-alive subsystems together, starts
// the TCP request endpoint and the websocket notification endpoint, and
// handles graceful shutdown with a final snapshot save.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/simplesocial/simplesocial/internal/logging"
	"github.com/simplesocial/simplesocial/internal/server/config"
	"github.com/simplesocial/simplesocial/internal/server/friendreq"
	"github.com/simplesocial/simplesocial/internal/server/keepalive"
	"github.com/simplesocial/simplesocial/internal/server/notify"
	"github.com/simplesocial/simplesocial/internal/server/session"
	"github.com/simplesocial/simplesocial/internal/server/social"
	"github.com/simplesocial/simplesocial/internal/server/tcp"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	graph     *social.Graph
	sessions  *session.Manager
	ledger    *friendreq.Ledger
	fanout    *notify.Fanout
	notifySvc *notify.Service
	tcpServer *tcp.Server
	prober    *keepalive.Prober
	replies   *keepalive.ReplyListener
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	graph := social.NewGraph()
	if cfg.BackupEnabled {
		loaded, err := graph.LoadFile(cfg.BackupPath)
		if err != nil {
			return nil, fmt.Errorf("snapshot restore error: %w", err)
		}
		if loaded {
			logger.Info(context.Background(), "social graph restored",
				"path", cfg.BackupPath, "users", graph.Len())
		}
	}

	sessions, err := session.NewManager(cfg.MaxSessionDuration)
	if err != nil {
		return nil, fmt.Errorf("session manager init error: %w", err)
	}

	ledger, err := friendreq.NewLedger(graph, cfg.MaxFriendRequestAge)
	if err != nil {
		return nil, fmt.Errorf("friend request ledger init error: %w", err)
	}

	fanout := notify.NewFanout(sessions, graph, logger)
	notifySvc := notify.NewService(fanout, logger)
	tcpServer := tcp.NewServer(cfg, logger, graph, sessions, ledger, fanout)

	prober := keepalive.NewProber(cfg.KeepAliveGroup, cfg.KeepAliveInterval, logger)
	replies, err := keepalive.NewReplyListener(cfg.KeepAliveReplyAddr, sessions, logger)
	if err != nil {
		return nil, fmt.Errorf("keepalive listener init error: %w", err)
	}

	return &App{
		config:    cfg,
		logger:    logger,
		graph:     graph,
		sessions:  sessions,
		ledger:    ledger,
		fanout:    fanout,
		notifySvc: notifySvc,
		tcpServer: tcpServer,
		prober:    prober,
		replies:   replies,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startTCPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.tcpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startNotificationServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.notifySvc.Run(ctx, app.config.NotifyAddr); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startKeepAlive(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.prober.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startKeepAliveReplies(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.replies.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startBackupLoop saves the social graph periodically while it has unsaved
// changes, plus a final save on shutdown.
func (app *App) startBackupLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.BackupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.saveSnapshot(context.Background())
			return
		case <-ticker.C:
			if app.graph.Dirty() {
				app.saveSnapshot(ctx)
			}
		}
	}
}

func (app *App) saveSnapshot(ctx context.Context) {
	if err := app.graph.SaveFile(app.config.BackupPath); err != nil {
		app.logger.Error(ctx, "snapshot save failed", "error", err)
		return
	}
	app.graph.ClearDirty()
	app.logger.Info(ctx, "social graph saved", "path", app.config.BackupPath)
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startTCPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startNotificationServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startKeepAlive(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startKeepAliveReplies(ctx, cancelFunc)
	}()

	if app.config.BackupEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startBackupLoop(ctx)
		}()
	}

	wg.Wait()
	app.sessions.Close()
}
