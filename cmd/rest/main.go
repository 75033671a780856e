package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kidsgpt-be/internal/bootstrap"
	"kidsgpt-be/internal/config"
	"kidsgpt-be/internal/server"
	"kidsgpt-be/internal/tracer"
	"kidsgpt-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, cfg.App.OtelEndpoint)
	defer shutdownTracer(context.Background())

	var gormDB *gorm.DB
	if cfg.Database.StoreDriver != "memory" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment == "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	defer container.Close()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Printf("Background Consumer Error: %v", err)
	}
	if container.NotificationService != nil {
		if err := container.NotificationService.Start(ctx); err != nil {
			log.Printf("Notification Service Error: %v", err)
		}
	} else {
		log.Println("[WARN] NATS not configured; parent alerts will not be delivered")
	}

	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
