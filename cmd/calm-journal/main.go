package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"calm/internal/cli"
	"calm/internal/log"
	"calm/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _ := cli.Bootstrap(log.ComponentJournal, nil)

	repo, err := storage.NewJournalRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return cli.NewJournalCommand(repo).ExecuteContext(ctx)
}
