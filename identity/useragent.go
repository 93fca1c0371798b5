package identity

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// Pool hands out browser identities and rotates to a fresh one after a
// block response.
type Pool struct {
	rand    *rand.Rand
	current string
	blocked bool
}

func NewPool(r *rand.Rand) *Pool {
	p := &Pool{rand: r}
	p.current = userAgents[r.Intn(len(userAgents))]
	return p
}

// UserAgent returns the current identity string.
func (p *Pool) UserAgent() string {
	return p.current
}

// Rotate swaps to a different user agent. Used after a 403.
func (p *Pool) Rotate() {
	next := p.current
	for next == p.current && len(userAgents) > 1 {
		next = userAgents[p.rand.Intn(len(userAgents))]
	}
	p.current = next
	p.blocked = true
}

// Apply sets the browser-like request headers for the current identity.
// After a rotation the referer switches to a search-engine origin.
func (p *Pool) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.current)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9,en-US;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-User", "?1")
	if p.blocked {
		req.Header.Set("Referer", "https://www.google.com/")
		req.Header.Set("Sec-Fetch-Site", "cross-site")
	} else {
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	}
}

// SessionCookies fabricates the analytics cookies a real browser session
// would carry.
func SessionCookies(r *rand.Rand) []*http.Cookie {
	now := time.Now().Unix()
	return []*http.Cookie{
		{Name: "_ga", Value: fmt.Sprintf("GA1.2.%d.%d", 100000000+r.Intn(900000000), now)},
		{Name: "_gid", Value: fmt.Sprintf("GA1.2.%d.%d", 100000000+r.Intn(900000000), now)},
		{Name: "session_id", Value: fmt.Sprintf("sess_%d_%d", 1000000+r.Intn(9000000), now)},
	}
}
