package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPProbe checks reachability of a URL. Any HTTP response counts as up,
// whatever its status code; only transport errors count as down.
type HTTPProbe struct {
	URL    string
	Client *http.Client
}

// Attempt issues a single GET against p.URL.
func (p *HTTPProbe) Attempt(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("invalid health check url %q: %w", p.URL, err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return nil
}

func (p *HTTPProbe) String() string { return p.URL }
