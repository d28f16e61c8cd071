package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/moby/moby/client"
	"golang.org/x/sync/errgroup"

	"github.com/matthieugusmini/docker-chatops/internal/api"
	"github.com/matthieugusmini/docker-chatops/internal/chatops"
	"github.com/matthieugusmini/docker-chatops/internal/docker"
	"github.com/matthieugusmini/docker-chatops/internal/sshexec"
	"github.com/matthieugusmini/docker-chatops/internal/telegram"
)

const (
	backendSSH   = "ssh"
	backendLocal = "local"

	healthShutdownTimeout = 5 * time.Second
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fs := flag.NewFlagSet("docker-chatops", flag.ContinueOnError)
	var (
		envFile    = fs.String("env-file", ".env", "path to an optional env file with configuration")
		healthAddr = fs.String("health-addr", "", "listen address of the health endpoint (disabled when empty)")
		debug      = fs.Bool("debug", false, "enable debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A missing env file is fine: variables already present in the
	// environment take precedence either way.
	_ = godotenv.Load(*envFile)

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	service := chatops.NewService(engine, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.botToken)
	if err != nil {
		return fmt.Errorf("create Telegram Bot API client: %w", err)
	}

	bot := telegram.NewBot(botAPI, service, logger, telegram.Options{
		AllowedUserIDs: cfg.allowedUserIDs,
	})

	logger.Info("Starting bot", slog.String("backend", cfg.backend))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(ctx)
	})

	if *healthAddr != "" {
		srv := &http.Server{
			Addr:              *healthAddr,
			Handler:           api.NewHandler(),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Health endpoint listening", slog.String("addr", *healthAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve health endpoint: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), healthShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type config struct {
	botToken       string
	allowedUserIDs []int64
	backend        string
	ssh            sshexec.Config
}

func loadConfig() (config, error) {
	cfg := config{
		botToken: os.Getenv("BOT_TOKEN"),
		backend:  strings.ToLower(os.Getenv("BACKEND")),
	}

	if cfg.botToken == "" {
		return config{}, errors.New("BOT_TOKEN must be set")
	}
	if cfg.backend == "" {
		cfg.backend = backendSSH
	}

	var err error
	cfg.allowedUserIDs, err = parseAllowedUsers(os.Getenv("ALLOWED_USERS"))
	if err != nil {
		return config{}, err
	}

	if cfg.backend == backendSSH {
		addr := os.Getenv("SSH_HOST")
		if addr == "" {
			return config{}, errors.New("SSH_HOST must be set for the ssh backend")
		}
		if !strings.Contains(addr, ":") {
			addr += ":22"
		}

		cfg.ssh = sshexec.Config{
			Addr:     addr,
			User:     os.Getenv("SSH_USER"),
			Password: os.Getenv("SSH_PASSWORD"),
			KeyFile:  os.Getenv("SSH_KEY_FILE"),
		}
		if cfg.ssh.User == "" {
			return config{}, errors.New("SSH_USER must be set for the ssh backend")
		}
	}

	return cfg, nil
}

func parseAllowedUsers(raw string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ALLOWED_USERS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newEngine(cfg config) (chatops.Engine, error) {
	switch cfg.backend {
	case backendSSH:
		runner, err := sshexec.NewRunner(cfg.ssh)
		if err != nil {
			return nil, err
		}
		return sshexec.NewEngine(runner), nil

	case backendLocal:
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, fmt.Errorf("new Docker Engine API client: %w", err)
		}
		return docker.NewClient(cli), nil

	default:
		return nil, fmt.Errorf("unknown backend %q (expected %q or %q)", cfg.backend, backendSSH, backendLocal)
	}
}
