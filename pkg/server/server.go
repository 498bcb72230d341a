package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/store"
	"github.com/bastiangx/mentionserve/pkg/suggest"
)

// Server handles the IPC for suggestion lookups
type Server struct {
	coord  *suggest.Coordinator
	store  *store.Store
	index  *suggest.Index
	cfg    *config.Config
	reader *bufio.Reader
	writer io.Writer
}

// NewServer creates a suggestion server using stdin/stdout for IPC
func NewServer(coord *suggest.Coordinator, st *store.Store, idx *suggest.Index, cfg *config.Config) *Server {
	return NewServerWithIO(coord, st, idx, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on explicit streams.
func NewServerWithIO(coord *suggest.Coordinator, st *store.Store, idx *suggest.Index, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	return &Server{
		coord:  coord,
		store:  st,
		index:  idx,
		cfg:    cfg,
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Start begins listening for IPC requests
func (s *Server) Start() error {
	log.Debug("Starting Server.")

	// Signal that the server is ready
	s.sendResponse(StatusResponse{Status: "ready"})

	// incoming requests stdin
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			log.Errorf("Reading from stdin: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.handleRequest(line)
	}
}

// handleRequest processes an incoming request string
func (s *Server) handleRequest(requestStr string) {
	var request Request
	if err := json.Unmarshal([]byte(requestStr), &request); err != nil {
		s.sendError("Invalid JSON request", 400)
		log.Errorf("Unmarshaling request: %v", err)
		return
	}

	// based on command
	switch request.Command {
	case "suggest":
		s.handleSuggest(request)
	case "refresh":
		s.handleRefresh(request)
	case "purge":
		s.handlePurge(request)
	case "health":
		s.sendResponse(StatusResponse{Status: "ok"})
	default:
		s.sendError(fmt.Sprintf("Unknown command: %s", request.Command), 400)
	}
}

// handleSuggest processes a suggestion lookup. It strips the trigger
// character, resolves the full set through the coordinator (cache first,
// network fallback) and filters it against the query.
func (s *Server) handleSuggest(request Request) {
	start := time.Now()

	kind, query, ok := s.parseInput(request)
	if !ok {
		return
	}
	if len(query) > s.cfg.Server.MaxQuery {
		s.sendError(fmt.Sprintf("Query exceeds maximum length of %d characters", s.cfg.Server.MaxQuery), 400)
		return
	}

	limit := request.Limit
	if limit <= 0 || limit > s.cfg.Server.MaxLimit {
		limit = s.cfg.Server.MaxLimit
	}

	items, err := s.coord.Get(context.Background(), request.Site, kind)
	if err != nil {
		s.sendLookupError(err)
		return
	}

	var matched []suggest.Suggestion
	if s.cfg.Server.PrefixMode && query != "" && s.index != nil {
		matched = s.index.Lookup(request.Site, kind, query)
	} else {
		matched = suggest.Filter(items, query)
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	response := SuggestResponse{
		Suggestions: make([]ResponseSuggestion, 0, len(matched)),
		Count:       len(matched),
		Query:       query,
		TimeTaken:   time.Since(start).Milliseconds(),
	}
	for _, item := range matched {
		response.Suggestions = append(response.Suggestions, ResponseSuggestion{
			Key:    item.Key(),
			Label:  item.Label(),
			Avatar: item.AvatarRef(),
			Kind:   item.Kind().String(),
		})
	}
	s.sendResponse(response)
}

// handleRefresh forces a network fetch for the requested set.
func (s *Server) handleRefresh(request Request) {
	kind, _, ok := s.parseInput(request)
	if !ok {
		return
	}

	items, err := s.coord.Refresh(context.Background(), request.Site, kind)
	if err != nil {
		s.sendLookupError(err)
		return
	}
	s.sendResponse(StatusResponse{Status: "refreshed", Count: len(items)})
}

// handlePurge drops the persisted set so the next lookup refetches.
func (s *Server) handlePurge(request Request) {
	kind, _, ok := s.parseInput(request)
	if !ok {
		return
	}

	if err := s.store.Purge(request.Site, kind); err != nil {
		log.Errorf("Purging %s set for %s: %v", kind, request.Site, err)
		s.sendError("Purge failed", 500)
		return
	}
	if s.index != nil {
		s.index.Drop(request.Site, kind)
	}
	s.sendResponse(StatusResponse{Status: "purged"})
}

// parseInput validates the site and splits the trigger-prefixed input.
func (s *Server) parseInput(request Request) (suggest.Kind, string, bool) {
	if request.Site == "" {
		s.sendError("Missing 'site' parameter", 400)
		return 0, "", false
	}
	if request.Input == "" {
		s.sendError("Missing 'input' parameter", 400)
		return 0, "", false
	}
	kind, query, ok := suggest.StripTrigger(request.Input)
	if !ok {
		s.sendError("Input must start with '@' or '+'", 400)
		log.Debugf("No trigger character in input %q", request.Input)
		return 0, "", false
	}
	return kind, query, true
}

// sendLookupError maps coordinator errors to wire status codes.
func (s *Server) sendLookupError(err error) {
	var transportErr *suggest.TransportError
	var decodeErr *suggest.DecodeError
	var storeErr *suggest.StoreError

	switch {
	case errors.Is(err, suggest.ErrNoResults):
		s.sendError("No results available", 404)
	case errors.Is(err, suggest.ErrHostnameUnavailable):
		s.sendError("Site hostname unavailable", 400)
	case errors.Is(err, suggest.ErrTimeout):
		s.sendError("Fetch timed out", 504)
	case errors.As(err, &transportErr):
		s.sendError("Network failure", 502)
	case errors.As(err, &decodeErr):
		s.sendError("Malformed payload from remote", 502)
	case errors.As(err, &storeErr):
		s.sendError("Cache write failed", 500)
	default:
		s.sendError("Internal server error", 500)
	}
	log.Errorf("Lookup failed: %v", err)
}

//	sendResponse function marshals the given response interface into JSON format and sends it to the client.
//
// The response is written to the server's writer, followed by a newline character.
func (s *Server) sendResponse(response interface{}) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		s.sendError("Internal server error", 500)
		return
	}
	fmt.Fprintln(s.writer, string(data))
}

// sendError sends an error response
func (s *Server) sendError(message string, code int) {
	errResponse := ErrorResponse{
		Error:  message,
		Status: code,
	}
	s.sendResponse(errResponse)
}
