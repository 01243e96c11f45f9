package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wyh0626/evermemos-mcp-server/internal/config"
	"github.com/wyh0626/evermemos-mcp-server/internal/evermem"
	"github.com/wyh0626/evermemos-mcp-server/internal/logger"
	"github.com/wyh0626/evermemos-mcp-server/internal/mcp"
	"github.com/wyh0626/evermemos-mcp-server/internal/tools"
	"github.com/wyh0626/evermemos-mcp-server/internal/tools/memory"
)

func main() {
	// Editor-launched servers inherit a sparse environment; a .env file
	// fills in credentials. A missing file is fine.
	godotenv.Load()

	// Logs go to stderr only. Stdout carries the MCP transport.
	logger.Init(logger.DefaultConfig())
	log := logger.ForComponent("main")

	cfg, err := config.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve configuration: %v\n", err)
		os.Exit(1)
	}

	client := evermem.NewClient(cfg)

	registry := tools.NewRegistry()
	for _, tool := range memory.GetTools(client, cfg) {
		if err := registry.Register(tool); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register tool: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(registry)
	log.Info("serving MCP over stdio",
		"tools", registry.Names(),
		"user_id", cfg.UserID,
		"group_id", cfg.GroupID)

	stdio := &mcp.StdioPipe{Reader: os.Stdin, Writer: os.Stdout}
	if err := server.Serve(ctx, stdio); err != nil && ctx.Err() == nil {
		log.Error("server terminated", "error", err)
		os.Exit(1)
	}
}
