package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/config"
	"github.com/hackgods/practice-calendar/internal/db"
	"github.com/hackgods/practice-calendar/internal/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down|status|version]")
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, command); err != nil {
		log.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, command string) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connectCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := db.NewMigrator(pool, log)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	switch command {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	case "version":
		version, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		log.Info("current schema version", zap.Int64("version", version))
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
