package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"betledger/cmd"
	"betledger/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "uid" {
		if err := cmd.PrintUID(os.Args[2:], os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if len(os.Args) > 1 && os.Args[1] == "import-fixtures" {
		if len(os.Args) < 3 {
			log.Fatal("usage: betledger import-fixtures <file>")
		}
		if err := cmd.ImportFixtures(ctx, os.Args[2], os.Stdout); err != nil {
			log.Fatal("Fixture import error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] != "serve" {
		log.Fatalf("unknown command %q (expected serve, migrate, import-fixtures or uid)", os.Args[1])
	}

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: betledger migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
