package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"threat-intel-service/internal/factory"
	"threat-intel-service/internal/handler"
	"threat-intel-service/internal/model"
	"threat-intel-service/internal/util"
	"threat-intel-service/internal/ws"
)

const statsInterval = 30 * time.Second

func main() {
	// Initialize factory (which loads config and initializes all components)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background loops: observer fan-out, synthetic telemetry, kafka feed,
	// periodic stats frames.
	go f.Hub().Run(ctx)

	if gen := f.Generator(); gen != nil {
		go gen.Run(ctx)
	}

	if consumer := f.EventConsumer(); consumer != nil {
		go func() {
			if err := consumer.Run(ctx); err != nil {
				util.Error("Kafka consumer stopped", util.ErrorField(err))
			}
		}()
	}

	go broadcastStats(ctx, f)

	router := setupRouter(f)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Fatal("Server failed to start", util.ErrorField(err))
		}
	}()

	util.Info("Server started successfully",
		util.String("environment", cfg.Environment),
		util.String("address", server.Addr),
	)

	waitForShutdown(f, cancel, server)
}

// setupRouter creates the HTTP router with all handlers using Chi
func setupRouter(f *factory.Factory) http.Handler {
	var emit func() model.AttackEvent
	if gen := f.Generator(); gen != nil {
		emit = gen.Emit
	}
	threatHandler := handler.NewThreatHandler(f.Service(), f.Hub(), emit, util.Get())
	return handler.NewRouter(threatHandler, util.Get())
}

// broadcastStats pushes headline counters to every observer periodically.
func broadcastStats(ctx context.Context, f *factory.Factory) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if f.Hub().ClientCount() == 0 {
				continue
			}
			health := f.Service().Health(f.Hub().ClientCount())
			f.Hub().Broadcast(ws.MessageTypeStats, map[string]int{
				"active_connections": health.ActiveConnections,
				"total_attacks":      health.TotalAttacks,
				"detected_bots":      health.DetectedBots,
			})
		}
	}
}

func waitForShutdown(f *factory.Factory, cancel context.CancelFunc, server *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-signalChan
	util.Info("Received shutdown signal", util.String("signal", sig.String()))

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		util.Error("Failed to shutdown server gracefully", util.ErrorField(err))
	} else {
		util.Info("Server shutdown completed")
	}
	f.Close()
}
