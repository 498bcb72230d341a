// Copyright 2026 The MentionServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the mention suggestion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

MentionServe provides mention ('@') and cross-post ('+') autocomplete
suggestions for text editors. Suggestion sets are fetched per site from a
remote HTTP API, persisted in a local binary cache, and filtered against
the user's partial query. It can operate as a line-protocol IPC server for
integration with editors, or as a CLI application for testing and debugging.

The retrieval path is cache first: a non-empty persisted set is served
without touching the network, and concurrent lookups for the same site are
coalesced into a single fetch. A successful refresh replaces the persisted
set wholesale; a failed one leaves the previous set intact.

# Usage

Start the server with default settings:

	mentionserve

Use a custom config and enable debug mode:

	mentionserve -config /path/to/config.toml -d

Run in CLI mode for interactive testing against a site:

	mentionserve -c -site daily.wordpress.com -limit 10

# Configuration

Runtime configuration is managed through a TOML file covering the remote
API, the cache location and server limits:

	[api]
	base_url = "https://public-api.wordpress.com/rest/v1.1"
	fetch_timeout_secs = 10

	[cache]
	dir = ""

	[server]
	max_limit = 64
	max_query = 60
	prefix_mode = false

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via line-delimited JSON over stdin/stdout.
Suggestion requests are processed synchronously with millisecond timing
information included in responses.

Send a suggestion request:

	{"command": "suggest", "site": "daily.wordpress.com", "input": "@mat", "limit": 10}

Receive the filtered matches:

	{"suggestions": [{"key": "matt", "label": "Matt M.", "kind": "mention"}], "count": 1, "query": "mat", "time_ms": 2}

Management requests force a refresh or drop a cached set:

	{"command": "refresh", "site": "daily.wordpress.com", "input": "@"}
	{"command": "purge", "site": "daily.wordpress.com", "input": "+"}

# Server Mode

The default mode starts the IPC server processing requests from stdin and
writing responses to stdout. Logs go to stderr so they never interleave
with protocol output.

	srv := server.NewServer(coordinator, cacheStore, index, cfg)
	err := srv.Start()

# CLI Mode

CLI mode provides an interactive interface for testing the lookup and
filter paths. It reads trigger-prefixed queries from stdin and displays
matches with timing information. Primarily intended for development and
debugging before deploying to server mode.
*/
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/mentionserve/internal/cli"
	"github.com/bastiangx/mentionserve/pkg/api"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/server"
	"github.com/bastiangx/mentionserve/pkg/store"
	"github.com/bastiangx/mentionserve/pkg/suggest"
)

const (
	Version = "0.3.0-beta"
	AppName = "mentionserve"
	gh      = "https://github.com/bastiangx/mentionserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a custom config.toml")
	cacheDir := flag.String("cache", "", "Directory for the suggestion cache (overrides config)")
	baseURL := flag.String("api", "", "Base URL of the suggestion API (overrides config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	site := flag.String("site", defaultConfig.CLI.DefaultSite, "Parent site hostname for CLI mode")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return in CLI mode")

	flag.Parse()

	if *showVersion {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["version"] = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[ MentionServe ] Serves mention and cross-post completions!")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use -h or --help to see available options")
		logger.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.SetOutput(os.Stderr)

	cfg, loadedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *cacheDir != "" {
		cfg.Cache.Dir = *cacheDir
	}

	resolvedCacheDir := cfg.CacheDir(loadedPath)
	log.Debugf("Using cache dir at: %s", resolvedCacheDir)

	cacheStore, err := store.New(resolvedCacheDir)
	if err != nil {
		log.Fatalf("Failed to init store: %v", err)
	}

	client, err := api.NewClient(cfg.API.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.API.FetchTimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to init api client: %v", err)
	}

	prober, err := api.NewProber(cfg.API.BaseURL)
	if err != nil {
		log.Fatalf("Failed to init reachability prober: %v", err)
	}

	coordinator, err := suggest.NewCoordinator(client, cacheStore, prober,
		time.Duration(cfg.API.FetchTimeoutSecs)*time.Second)
	if err != nil {
		log.Fatalf("Failed to init coordinator: %v", err)
	}

	index := suggest.NewIndex()
	coordinator.SetIndex(index)

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		if *site == "" {
			log.Fatal("CLI mode needs -site (or cli.default_site in config)")
		}
		inputHandler := cli.NewInputHandler(coordinator, *site, *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI terminated: %v", err)
		}
		return
	}

	srv := server.NewServer(coordinator, cacheStore, index, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server terminated: %v", err)
	}
}
