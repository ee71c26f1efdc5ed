package httptracker

import (
	"context"
	"io"
	"net/http"
	"time"
)

// httpTransport is the default tracker.TransportClient, grounded on the
// teacher's HTTPTracker.New: a dedicated *http.Transport with keep-alives
// disabled, since tracker connections are infrequent and short-lived.
type httpTransport struct {
	client *http.Client
}

func newHTTPTransport() *httpTransport {
	return &httpTransport{
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

// Get issues a GET to url, bounding the whole round trip (connect through
// body read) by timeout layered on top of ctx.
func (t *httpTransport) Get(ctx context.Context, url string, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// CloseIdleConnections releases pooled connections, mirroring the teacher's
// HTTPTracker.Close.
func (t *httpTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
