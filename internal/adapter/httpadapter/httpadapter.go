// Package httpadapter is the HTTP collaborator of the download executor:
// one plain GET per artifact, body to bytes, no retries or mirrors.
package httpadapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jgivc/downloadset/internal/common"
)

const maxErrorBody = 256

type Fetcher struct {
	client *http.Client
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a GET request and returns the full response body.
// Any transport failure or non-200 status wraps common.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrFetch, url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrFetch, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", common.ErrFetch, url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s: %s",
			common.ErrFetch, resp.StatusCode, url, errorBody(body))
	}

	return body, nil
}

func errorBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}

	return s
}
