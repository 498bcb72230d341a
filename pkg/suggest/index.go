package suggest

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is an in-memory prefix index over installed suggestion sets. Each
// (site, kind) gets its own patricia trie keyed by the lowercased key and
// label, so the server's hot path can narrow prefix queries without a full
// substring scan. Rebuilt wholesale whenever the coordinator installs a
// fresh set.
type Index struct {
	mu    sync.RWMutex
	tries map[string]*patricia.Trie
}

func NewIndex() *Index {
	return &Index{tries: make(map[string]*patricia.Trie)}
}

func indexKey(site string, kind Kind) string {
	return kind.String() + "/" + site
}

// Has reports whether a set is installed for (site, kind).
func (ix *Index) Has(site string, kind Kind) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.tries[indexKey(site, kind)]
	return ok
}

// Install replaces the trie for (site, kind) with one built from items.
// Both the key and the label of every suggestion are indexed.
func (ix *Index) Install(site string, kind Kind, items []Suggestion) {
	trie := patricia.NewTrie()
	for _, item := range items {
		trie.Set(patricia.Prefix(strings.ToLower(item.Key())), item)
		if label := strings.ToLower(item.Label()); label != "" && label != strings.ToLower(item.Key()) {
			trie.Set(patricia.Prefix(label), item)
		}
	}

	ix.mu.Lock()
	ix.tries[indexKey(site, kind)] = trie
	ix.mu.Unlock()

	log.Debugf("Indexed %d %s suggestions for %s", len(items), kind, site)
}

// Lookup returns the suggestions whose key or label starts with prefix,
// case-insensitively. Items matching on both key and label are returned
// once. Returns nil when no set is installed for (site, kind).
func (ix *Index) Lookup(site string, kind Kind, prefix string) []Suggestion {
	ix.mu.RLock()
	trie, ok := ix.tries[indexKey(site, kind)]
	ix.mu.RUnlock()
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var results []Suggestion

	err := trie.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(p patricia.Prefix, item patricia.Item) error {
		s := item.(Suggestion)
		if seen[s.Key()] {
			return nil
		}
		seen[s.Key()] = true
		results = append(results, s)
		return nil
	})
	if err != nil {
		log.Errorf("Visiting index subtree: %v", err)
	}
	return results
}

// Drop removes the installed set for (site, kind). Used when a forced
// refresh invalidates the previous index.
func (ix *Index) Drop(site string, kind Kind) {
	ix.mu.Lock()
	delete(ix.tries, indexKey(site, kind))
	ix.mu.Unlock()
}
