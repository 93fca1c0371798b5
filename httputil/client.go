package httputil

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// NewClient builds the scraping client: shared cookie jar, bounded timeout
// and an optional proxy. Redirects are followed so portal URL rewrites
// still land on a result page.
func NewClient(timeout time.Duration, proxyURL string) *http.Client {
	jar, _ := cookiejar.New(nil)

	transport := http.DefaultTransport
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
	}
}
