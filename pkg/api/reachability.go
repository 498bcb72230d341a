package api

import (
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Prober reports reachability of the API host with a short TCP dial.
// Implements suggest.Reachability. Results are memoized briefly so rapid
// keystrokes don't dial on every lookup.
type Prober struct {
	host    string
	timeout time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastResult bool
}

// NewProber creates a prober for the host of baseURL.
func NewProber(baseURL string) (*Prober, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "http" {
			host = net.JoinHostPort(u.Hostname(), "80")
		} else {
			host = net.JoinHostPort(u.Hostname(), "443")
		}
	}
	return &Prober{host: host, timeout: 2 * time.Second}, nil
}

// IsReachable dials the API host. A result is reused for 5 seconds.
func (p *Prober) IsReachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastCheck.IsZero() && time.Since(p.lastCheck) < 5*time.Second {
		return p.lastResult
	}

	conn, err := net.DialTimeout("tcp", p.host, p.timeout)
	p.lastCheck = time.Now()
	if err != nil {
		log.Debugf("Reachability probe to %s failed: %v", p.host, err)
		p.lastResult = false
		return false
	}
	conn.Close()
	p.lastResult = true
	return true
}
