// chatd exposes the job chat workflow over MCP (stdio transport).
//
// Tools:
//
//	apply_patch  Apply edit instructions to a code buffer.
//	job_chat     Answer a job-writing question, optionally patching code.
//
// Usage:
//
//	chatd serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/haowjy/meridian-chat-go/history"
	"github.com/haowjy/meridian-chat-go/jobchat"
	"github.com/haowjy/meridian-chat-go/jobchat/anthropic"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
	case "--version", "-v", "version":
		fmt.Printf("chatd v%s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := newServer()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

// newServer wires config, generator, history store, and tools. This is
// the composition root; no business logic lives here.
func newServer() (*server.MCPServer, func(), error) {
	// Best-effort .env loading for local development.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	s := server.NewMCPServer(
		"chatd",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	// Generator is optional: without an API key the patch tool still
	// works, just without the correction pathway or the chat tool.
	var svc *jobchat.Service
	correct := noCorrection()
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		gen, err := anthropic.NewGenerator(apiKey)
		if err != nil {
			return nil, nil, fmt.Errorf("creating generator: %w", err)
		}
		svc = jobchat.NewService(gen, cfg)
		if cfg.Correction.Enabled {
			correct = anthropic.NewCorrectionFunc(gen, cfg.Correction)
			svc.UseCorrection(correct)
		}
	} else {
		log.Printf("WARNING: ANTHROPIC_API_KEY not set: job_chat tool disabled, apply_patch runs without correction")
	}

	cleanup := func() {}
	if svc != nil {
		store, err := history.New(historyPath())
		if err != nil {
			log.Printf("WARNING: chat history disabled: %v", err)
		} else {
			svc.UseHistory(store)
			cleanup = func() {
				if err := store.Close(); err != nil {
					log.Printf("WARNING: history store close: %v", err)
				}
			}
		}
	}

	patchTool := newPatchTool(correct)
	s.AddTool(patchTool.Definition(), patchTool.Handle)

	if svc != nil {
		chatTool := newChatTool(svc)
		s.AddTool(chatTool.Definition(), chatTool.Handle)
	}

	return s, cleanup, nil
}

// loadConfig reads the config file named by CHATD_CONFIG, or the
// embedded defaults when unset.
func loadConfig() (*jobchat.Config, error) {
	path := os.Getenv("CHATD_CONFIG")
	if path == "" {
		return jobchat.DefaultConfig(), nil
	}
	cfg, err := jobchat.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return cfg, nil
}

// historyPath returns the chat database path, CHATD_DB or a default
// next to the working directory.
func historyPath() string {
	if path := os.Getenv("CHATD_DB"); path != "" {
		return path
	}
	return "chatd.db"
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `chatd v%s — job chat MCP server

Usage:
  chatd serve    Start the MCP server (stdio transport)

Environment:
  ANTHROPIC_API_KEY   API key for the Claude generator (enables job_chat)
  CHATD_CONFIG        Optional YAML config path
  CHATD_DB            Chat history database path (default: chatd.db)
`, Version)
}
