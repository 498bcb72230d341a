/*
Package server implements line-delimited JSON IPC for suggestion services.

The server operates on a request response model where clients (editor
plugins) send one JSON object per line via stdin and receive one JSON
response per line through stdout.

A suggestion request carries the site, the trigger-prefixed input and an
optional limit:

	{"command": "suggest", "site": "daily.wordpress.com", "input": "@mat", "limit": 10}

The server strips the trigger character ('@' for mentions, '+' for
cross-posts), resolves the suggestion set through the cache-first
coordinator and filters it against the query:

	{"suggestions": [{"key": "matt", "label": "Matt M.", "kind": "mention"}], "count": 1, "query": "mat", "time_ms": 2}

Management commands:

	{"command": "refresh", "site": "daily.wordpress.com", "input": "@"}
	{"command": "purge", "site": "daily.wordpress.com", "input": "+"}
	{"command": "health"}

refresh forces a network fetch bypassing the cache-first check; purge
drops the persisted set so the next lookup refetches. Errors carry an HTTP
style status code so clients can distinguish offline (404) from transport
(502) and timeout (504) failures.
*/
package server

// Request represents an incoming request from the client
type Request struct {
	Command string `json:"command"`
	Site    string `json:"site"`
	Input   string `json:"input,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// ResponseSuggestion is the format for each suggestion in the API response
type ResponseSuggestion struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Avatar string `json:"avatar,omitempty"`
	Kind   string `json:"kind"`
}

// SuggestResponse is the overall response for a suggest command
type SuggestResponse struct {
	Suggestions []ResponseSuggestion `json:"suggestions"`
	Count       int                  `json:"count"`
	Query       string               `json:"query"`
	TimeTaken   int64                `json:"time_ms"`
}

// StatusResponse reports the outcome of a management command
type StatusResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
