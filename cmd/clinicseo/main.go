package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/clinicseo/internal/config"
	"github.com/hpungsan/clinicseo/internal/db"
	"github.com/hpungsan/clinicseo/internal/llm"
	"github.com/hpungsan/clinicseo/internal/logging"
	"github.com/hpungsan/clinicseo/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"resolve": true, "compose": true, "generate": true, "template": true,
	"fetch": true, "list": true, "delete": true, "export": true, "purge": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
        _ _       _
    ___| (_)_ __ (_) ___ ___  ___  ___
   / __| | | '_ \| |/ __/ __|/ _ \/ _ \
  | (__| | | | | | | (__\__ \  __/ (_) |
   \___|_|_|_| |_|_|\___|___/\___|\___/

  SEO content for clinic profiles

  Usage: clinicseo <command> [options]
         clinicseo serve        (web UI)
         clinicseo --help

  MCP server mode requires piped input.`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatalf("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'clinicseo --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatalf("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	wd, err := os.Getwd()
	if err != nil {
		wd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, wd)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fatalf("%v", err)
	}
	defer log.Sync()

	database, err := db.Init(baseDir)
	if err != nil {
		fatalf("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	newGen := func() (llm.Generator, error) {
		return llm.NewFromConfig(cfg.LLM)
	}

	if isCLIMode() {
		app := newCLIApp(database, cfg, log, newGen)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default). Without a usable provider the server still
	// serves the resolve, prompt and history tools.
	gen, err := newGen()
	if err != nil {
		log.Warn("text generation unavailable", "provider", cfg.LLM.Provider, "error", err)
		gen = nil
	}
	if err := mcp.Run(database, cfg, gen, log, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
