package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "index command: up|status")
	flag.Parse()

	if *cmd != "up" && *cmd != "status" {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"database": cfg.Mongo.Database,
	})

	dbClient, err := db.New(ctx, cfg.Mongo, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close(context.Background())

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		if err := migrate.EnsureIndexes(ctx, dbClient.Database()); err != nil {
			fmt.Fprintf(os.Stderr, "ensuring indexes failed: %v\n", err)
			os.Exit(1)
		}
		logg.Info(ctx, "indexes ensured")

	case "status":
		status, err := migrate.Status(ctx, dbClient.Database())
		if err != nil {
			fmt.Fprintf(os.Stderr, "index status failed: %v\n", err)
			os.Exit(1)
		}
		collections := make([]string, 0, len(status))
		for name := range status {
			collections = append(collections, name)
		}
		sort.Strings(collections)
		for _, name := range collections {
			fmt.Printf("%s: %v\n", name, status[name])
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
