// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astrobot/internal/ai"
	"astrobot/internal/config"
	"astrobot/internal/discord"
	"astrobot/internal/engine"
	"astrobot/internal/integrations"
	"astrobot/internal/storage"
	"astrobot/pkg/jobmgr"
)

func main() {
	log.Println("[INFO] Starting astrobot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	transport := discord.NewTransport()
	registry := integrations.New(ai.NewProvider(cfg.AIProvider))

	eng := engine.New(store, transport, registry, storage.NewGroupGate(store), engine.Options{
		LoopLimit:          cfg.LoopLimit,
		IntegrationTimeout: cfg.IntegrationTimeout,
	})

	jobs := jobmgr.NewManager(ctx, func(msg string) {
		log.Println("[INFO] Job:", msg)
	})
	if err := jobs.Start("cooldown-sweeper", func(ctx context.Context) error {
		engine.RunCooldownSweeper(ctx, eng.Cooldowns(), 10*time.Minute, time.Hour)
		return nil
	}); err != nil {
		log.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := discord.StartBot(ctx, cfg, store, eng, transport); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	jobs.Wait()
	log.Println("[INFO] Discord bot exited cleanly")
}
