// Package store persists suggestion sets as per-site binary files.
//
// Each (site, kind) pair maps to one msgpack-encoded file under the cache
// directory. A refresh replaces the file wholesale through a temp-file
// rename, so a crash or write failure mid-replace leaves the previous set
// readable and never a half-written one.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/suggest"
)

// record is the on-disk shape of one suggestion.
type record struct {
	Key    string `msgpack:"k"`
	Label  string `msgpack:"l"`
	Avatar string `msgpack:"a,omitempty"`
	URL    string `msgpack:"u,omitempty"`
}

// fileSet is the on-disk shape of one (site, kind) suggestion set.
type fileSet struct {
	Site  string   `msgpack:"site"`
	Kind  int      `msgpack:"kind"`
	Items []record `msgpack:"items"`
}

// Store is a file-backed suggestion cache. Safe for concurrent use; the
// in-process lock keeps readers from observing a set mid-replace.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store: empty cache directory")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("store: creating cache directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// ReplaceAll atomically swaps the persisted set for (site, kind) with items.
// The previous set is fully purged; on any failure it remains intact.
func (s *Store) ReplaceAll(site string, kind suggest.Kind, items []suggest.Suggestion) error {
	set := fileSet{
		Site:  site,
		Kind:  int(kind),
		Items: make([]record, 0, len(items)),
	}
	for _, item := range items {
		rec := record{
			Key:    item.Key(),
			Label:  item.Label(),
			Avatar: item.AvatarRef(),
		}
		if ss, ok := item.(suggest.SiteSuggestion); ok {
			rec.URL = ss.SiteURL
		}
		set.Items = append(set.Items, rec)
	}

	data, err := msgpack.Marshal(&set)
	if err != nil {
		return fmt.Errorf("store: encoding set for %s: %w", site, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(site, kind)
	tmp := path + ".tmp"
	if err := writeFileSync(tmp, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: replacing %s: %w", path, err)
	}

	log.Debugf("Stored %d %s suggestions for %s", len(set.Items), kind, site)
	return nil
}

// Read returns the persisted set for (site, kind). A missing file is an
// empty set, not an error.
func (s *Store) Read(site string, kind suggest.Kind) ([]suggest.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.filePath(site, kind)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: reading %s: %w", path, err)
	}

	var set fileSet
	if err := msgpack.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("store: decoding %s: %w", path, err)
	}

	items := make([]suggest.Suggestion, 0, len(set.Items))
	for _, rec := range set.Items {
		if kind == suggest.KindCrossPost {
			items = append(items, suggest.SiteSuggestion{
				Subdomain: rec.Key,
				Title:     rec.Label,
				SiteURL:   rec.URL,
				ImageURL:  rec.Avatar,
			})
			continue
		}
		items = append(items, suggest.UserSuggestion{
			Login:       rec.Key,
			DisplayName: rec.Label,
			ImageURL:    rec.Avatar,
		})
	}
	return items, nil
}

// Purge removes the persisted set for (site, kind). Used by forced
// refreshes; a missing file is not an error.
func (s *Store) Purge(site string, kind suggest.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filePath(site, kind))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: purging set for %s: %w", site, err)
	}
	return nil
}

func (s *Store) filePath(site string, kind suggest.Kind) string {
	return filepath.Join(s.dir, kind.String()+"_"+sanitizeSite(site)+".bin")
}

// sanitizeSite maps a hostname to a filename-safe token.
func sanitizeSite(site string) string {
	site = strings.ToLower(site)
	var b strings.Builder
	for _, r := range site {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
