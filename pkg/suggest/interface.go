// Package suggest is the core, providing suggestion filtering and the
// cache-first retrieval coordinator for mention and cross-post lookups.
package suggest

import "context"

// Kind tags the two suggestion variants. The trigger character in the
// editor selects the kind: '@' for mentions, '+' for cross-posts.
type Kind int

const (
	KindMention Kind = iota
	KindCrossPost
)

// TriggerChar returns the editor trigger character for the kind.
func (k Kind) TriggerChar() byte {
	if k == KindCrossPost {
		return '+'
	}
	return '@'
}

func (k Kind) String() string {
	if k == KindCrossPost {
		return "xpost"
	}
	return "mention"
}

// Suggestion is a single autocomplete candidate. Implementations are
// immutable once fetched.
type Suggestion interface {
	// Key is the identifying token inserted on accept (username or subdomain).
	Key() string
	// Label is the human readable display name.
	Label() string
	// AvatarRef is an optional avatar URL, empty when the remote has none.
	AvatarRef() string
	// Kind reports which variant this is.
	Kind() Kind
}

// UserSuggestion is a mention candidate ('@' trigger).
type UserSuggestion struct {
	Login       string
	DisplayName string
	ImageURL    string
}

func (u UserSuggestion) Key() string       { return u.Login }
func (u UserSuggestion) Label() string     { return u.DisplayName }
func (u UserSuggestion) AvatarRef() string { return u.ImageURL }
func (u UserSuggestion) Kind() Kind        { return KindMention }

// SiteSuggestion is a cross-post candidate ('+' trigger).
type SiteSuggestion struct {
	Subdomain string
	Title     string
	SiteURL   string
	ImageURL  string
}

func (s SiteSuggestion) Key() string       { return s.Subdomain }
func (s SiteSuggestion) Label() string     { return s.Title }
func (s SiteSuggestion) AvatarRef() string { return s.ImageURL }
func (s SiteSuggestion) Kind() Kind        { return KindCrossPost }

// Fetcher retrieves the full suggestion set for a site from the remote API.
type Fetcher interface {
	Fetch(ctx context.Context, site string, kind Kind) ([]Suggestion, error)
}

// Store persists suggestion sets across process runs. ReplaceAll must be
// atomic: a failure mid-replace leaves the previous set readable.
type Store interface {
	ReplaceAll(site string, kind Kind, items []Suggestion) error
	Read(site string, kind Kind) ([]Suggestion, error)
}

// Reachability reports whether the network is worth trying. Consulted only
// when the cache is empty.
type Reachability interface {
	IsReachable() bool
}
