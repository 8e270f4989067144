/*
Package main
File: main.go
Description: Server entry point. Loads the catalog, opens player storage, starts the
real-time WebSocket hub and the tick scheduler that keeps every connected economy running.
*/

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everforgeworks/resource-rush/internal/api"
	"github.com/everforgeworks/resource-rush/internal/config"
	"github.com/everforgeworks/resource-rush/internal/engine"
	"github.com/everforgeworks/resource-rush/internal/game"
	"github.com/everforgeworks/resource-rush/internal/storage"
)

func main() {
	// 1. Configuration: defaults, then server.yaml, then RR_* environment
	cfg, err := config.Load("server.yaml", log.Default())
	if err != nil {
		log.Fatalf("Config Fail: %v", err)
	}

	// 2. Static catalog. A broken catalog must stop the server before anyone connects.
	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Catalog Fail: %v", err)
	}

	// 3. Player storage
	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("Storage Fail: %v", err)
	}
	gateway := storage.NewGateway(kv, storage.Options{
		Namespace:      cfg.Storage.Namespace,
		SaveVersion:    cfg.Storage.SaveVersion,
		KeepMismatched: cfg.Storage.VersionMismatch == config.MismatchKeep,
		Retries:        cfg.Storage.WriteRetries,
		Backoff:        cfg.Storage.RetryBackoff,
	})
	log.Printf("Storage: %s, save version %d", cfg.Storage.Driver, cfg.Storage.SaveVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Real-Time WebSocket Hub and the engine that feeds it
	hub := api.NewHub(nil)
	go hub.Run(ctx)

	eng := engine.New(gateway, hub, engine.Options{
		ConnectRetryDelay: cfg.ConnectRetryDelay,
		Shards:            cfg.Session.Shards,
	})
	eng.LoadCatalog(catalog)

	// 5. THE HEARTBEAT
	// Advances every connected player's passive production once per interval.
	go engine.NewScheduler(eng, cfg.TickInterval, nil).Run(ctx)

	// 6. Checkpoint on SIGHUP: queue a save for every connected player
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			select {
			case <-sigChan:
				log.Printf("SIGNAL: Checkpoint queued for %d players", eng.SaveAll())
			case <-ctx.Done():
				return
			}
		}
	}()

	// 7. Start the Server
	server := api.NewServer(eng, hub, api.Options{
		ClickRate:  cfg.Transport.ClickRate,
		ClickBurst: cfg.Transport.ClickBurst,
		SendBuffer: cfg.Transport.SendBuffer,
	})
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Routes()}

	go func() {
		log.Printf("RESOURCE RUSH Server live on %s", cfg.Addr)
		log.Printf("Real-time Hub: Online")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("SIGNAL: Shutting down...")

	// 8. Drain: stop accepting, persist everyone, wait for the writes to land
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	log.Printf("Saving %d players", eng.SaveAll())
	if err := gateway.Close(shutdownCtx); err != nil {
		log.Printf("Storage close: %v", err)
	}
	log.Println("Shutdown complete")
}
