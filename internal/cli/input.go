// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/pkg/suggest"
)

// InputHandler processes user input from stdin, resolving trigger-prefixed
// queries against the coordinator and printing the matches. Used for
// interactive debugging of the lookup and filter paths.
type InputHandler struct {
	coord        *suggest.Coordinator
	site         string
	suggestLimit int
	log          *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(coord *suggest.Coordinator, site string, limit int) *InputHandler {
	return &InputHandler{
		coord:        coord,
		site:         site,
		suggestLimit: limit,
		log:          logger.Default("cli"),
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the trimmed input to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin
func (h *InputHandler) Start() error {
	h.log.Print("MentionServe CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	h.log.Printf("site: %s", h.site)
	h.log.Print("type '@name' or '+site' and press Enter to see the suggestions (Ctrl+C to exit):")

	for {
		h.log.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		h.handleInput(input)
	}
}

// handleInput processes a single trigger-prefixed query. It resolves the
// suggestion set for the site (cache first), filters it and prints the
// matches with timing.
func (h *InputHandler) handleInput(input string) {
	kind, query, ok := suggest.StripTrigger(input)
	if !ok {
		h.log.Errorf("Input must start with '@' or '+': %s", input)
		return
	}

	start := time.Now()
	items, err := h.coord.Get(context.Background(), h.site, kind)
	if err != nil {
		h.log.Errorf("Lookup failed: %v", err)
		return
	}

	matched := suggest.Filter(items, query)
	if len(matched) > h.suggestLimit {
		matched = matched[:h.suggestLimit]
	}
	elapsed := time.Since(start)

	if len(matched) == 0 {
		h.log.Printf("no matches for %q (%d candidates, %s)", query, len(items), elapsed)
		return
	}
	for i, item := range matched {
		fmt.Printf("  %2d. %c%s  %s\n", i+1, kind.TriggerChar(), item.Key(), item.Label())
	}
	h.log.Printf("%d/%d matched in %s", len(matched), len(items), elapsed)
}
