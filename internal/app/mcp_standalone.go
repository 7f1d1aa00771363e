package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"passbook/internal/config"
	mcpserver "passbook/internal/mcp"
	"passbook/internal/service"
	"passbook/internal/storage"
)

// noopClipboard is used in MCP-only mode; agents never copy.
type noopClipboard struct{}

func (noopClipboard) SetText(context.Context, string) error { return nil }

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// Destructive tools wait for the GUI to approve them through the shared database.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	backend, err := openBackend(cfg, db)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Backend, err)
	}

	creds := service.NewCredentialService(backend.store, noopClipboard{}, nil, cfg.StorageKey, cfg.CopyIndicator)
	creds.Load(ctx)
	defer creds.Close(context.Background())

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Credentials: creds,
		ApprovalDB:  db.Conn(),
	})

	log.Printf("[MCP] Starting standalone stdio server (backend=%s)...", cfg.Backend)
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Printf("MCP server error: %v", err)
	}
}
