package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/config"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/interface/web"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	svc, err := cfg.AppService()
	if err != nil {
		log.Fatalf("failed to create service: %s", err)
	}

	log.Infof("kototsuted config: %s", cfg)

	server := web.NewServer(fmt.Sprintf(":%d", cfg.Port), svc)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP, os.Interrupt,
	)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("server error: %s", err)
		}
	case <-sigChan:
		log.Info("shutting down service...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.Warnf("failed to stop server gracefully: %s", err)
		}
	}

	if repo, err := cfg.RepoManager(); err == nil {
		repo.Close()
	}
	log.Exit(0)
}
