// Package main is the entry point for the headless mascot dance simulator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/mascot-dance/internal/config"
	"github.com/Faultbox/mascot-dance/internal/logger"
	"github.com/Faultbox/mascot-dance/internal/session"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Mascot Dance Simulator ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	script := session.DemoScript()
	if cfg.Session.Script != "" {
		s, err := session.LoadScript(cfg.Session.Script)
		if err != nil {
			return err
		}
		script = s
	}

	var opts []session.Option
	opts = append(opts, session.WithLogger(logger.Component("session")))
	if cfg.Session.Watch {
		reload, err := watchConfig(ctx, cfg.Source())
		if err != nil {
			return err
		}
		opts = append(opts, session.WithReload(reload))
	}

	s, err := session.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.Run(ctx, script)
	if err != nil && ctx.Err() == nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(sum)
}

// watchConfig forwards reloaded configs, keeping only the newest one until
// the session picks it up.
func watchConfig(ctx context.Context, path string) (<-chan *config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--watch needs a config file")
	}
	log := logger.Component("watch")
	reload := make(chan *config.Config, 1)

	go func() {
		err := config.Watch(ctx, path, func(c *config.Config, err error) {
			if err != nil {
				log.Warn("config reload failed", zap.Error(err))
				return
			}
			select {
			case <-reload:
			default:
			}
			reload <- c
		})
		if err != nil {
			log.Error("config watcher stopped", zap.Error(err))
		}
	}()

	log.Info("watching config", zap.String("path", path))
	return reload, nil
}
