// Package httptracker implements the HTTP tracker client of spec.md §4.5:
// it assembles the announce URL, performs the GET through a pluggable
// tracker.TransportClient, and decodes the bencoded response.
//
// Grounded on the teacher's internal/tracker/httptracker/httptracker.go
// (HTTPTracker.Announce's shape: build query, GET, decode, peer list
// dispatch on compact vs dictionary form), generalized to use this
// module's own bencode decoder instead of github.com/zeebo/bencode and an
// injected transport instead of a hard-wired *http.Client.
package httptracker

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v3"

	"github.com/cenkalti/torrentfs/internal/bencode"
	"github.com/cenkalti/torrentfs/internal/logger"
	"github.com/cenkalti/torrentfs/internal/tracker"
)

// DefaultTimeout is the per-request budget handed to the transport when the
// caller does not specify one.
const DefaultTimeout = 30 * time.Second

// Client is an HTTP announcer for one announce URL.
type Client struct {
	AnnounceURL string
	Transport   tracker.TransportClient
	URLBufSize  int

	log logger.Logger
}

// New returns a Client that issues requests through its own *http.Client,
// one per Client (the teacher disables keep-alives for the same reason:
// tracker connections are infrequent and short-lived).
func New(announceURL string) *Client {
	return &Client{
		AnnounceURL: announceURL,
		Transport:   newHTTPTransport(),
		log:         logger.New("tracker " + announceURL),
	}
}

// NewWithTransport returns a Client that issues requests through an
// arbitrary tracker.TransportClient, e.g. a test double.
func NewWithTransport(announceURL string, t tracker.TransportClient) *Client {
	return &Client{AnnounceURL: announceURL, Transport: t, log: logger.New("tracker " + announceURL)}
}

// Announce performs one announce request and decodes its response. It does
// not retry; see RetryAnnounce for a backoff-wrapped periodic announcer.
func (c *Client) Announce(ctx context.Context, req tracker.Request, timeout time.Duration) (*tracker.Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	u, err := tracker.BuildAnnounceURL(c.AnnounceURL, req, c.URLBufSize)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("making request to: %q", u)

	body, status, err := c.Transport.Get(ctx, u, timeout)
	if err != nil {
		return nil, &tracker.Error{Kind: tracker.Transport, Reason: err.Error()}
	}
	if status != http.StatusOK {
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "status not 200 OK"}
	}

	return decodeResponse(body)
}

// Close releases any pooled connections held by the underlying transport, if
// it supports that, mirroring the teacher's HTTPTracker.Close.
func (c *Client) Close() {
	type idleCloser interface{ CloseIdleConnections() }
	if ic, ok := c.Transport.(idleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// RetryAnnounce wraps Announce with exponential backoff, grounded on the
// teacher's internal/announcer/announcer.go ExponentialBackOff wrapping of
// announce calls. It stops retrying once ctx is done or attempt succeeds.
func (c *Client) RetryAnnounce(ctx context.Context, req tracker.Request, timeout time.Duration) (*tracker.Response, error) {
	var resp *tracker.Response
	policy := backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     5 * time.Second,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         30 * time.Minute,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}, ctx)
	err := backoff.Retry(func() error {
		r, err := c.Announce(ctx, req, timeout)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, policy)
	return resp, err
}

func decodeResponse(body []byte) (*tracker.Response, error) {
	df, err := bencode.Decode(body)
	if err != nil {
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: err.Error()}
	}
	root := df.Root
	if root.Kind != bencode.KindDictionary {
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "response is not a dictionary"}
	}

	for _, key := range []string{"failure reason", "warning message", "interval", "min interval", "peers"} {
		if root.Count(key) > 1 {
			return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "duplicate key: " + key}
		}
	}

	if v, ok := root.Get("failure reason"); ok {
		if v.Kind != bencode.KindBytestring {
			return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "failure reason: wrong type"}
		}
		return nil, &tracker.Error{Kind: tracker.Failure, Reason: string(v.Bytes)}
	}

	resp := &tracker.Response{}

	if v, ok := root.Get("warning message"); ok {
		if v.Kind != bencode.KindBytestring {
			return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "warning message: wrong type"}
		}
		resp.Warning = string(v.Bytes)
	}

	intervalVal, ok := root.Get("interval")
	if !ok || intervalVal.Kind != bencode.KindInteger || intervalVal.Int <= 0 {
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "missing or invalid interval"}
	}
	resp.Interval = time.Duration(intervalVal.Int) * time.Second

	if v, ok := root.Get("min interval"); ok {
		if v.Kind != bencode.KindInteger || v.Int <= 0 {
			return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "invalid min interval"}
		}
		resp.MinInterval = time.Duration(v.Int) * time.Second
	}

	peersVal, ok := root.Get("peers")
	if !ok {
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "missing peers"}
	}
	peers, err := decodePeers(peersVal)
	if err != nil {
		return nil, err
	}
	resp.Peers = peers

	return resp, nil
}

func decodePeers(v bencode.Value) ([]tracker.Peer, error) {
	switch v.Kind {
	case bencode.KindBytestring:
		peers, err := tracker.DecodePeersCompact(v.Bytes)
		if err != nil {
			return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: err.Error()}
		}
		return peers, nil
	case bencode.KindList:
		peers := make([]tracker.Peer, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind != bencode.KindDictionary {
				return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "peer entry is not a dictionary"}
			}
			ipVal, ok := item.Get("ip")
			if !ok || ipVal.Kind != bencode.KindBytestring {
				return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "peer missing ip"}
			}
			portVal, ok := item.Get("port")
			if !ok || portVal.Kind != bencode.KindInteger || portVal.Int < 0 || portVal.Int > 0xffff {
				return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "peer missing port"}
			}
			ip := net.ParseIP(string(ipVal.Bytes))
			if ip == nil {
				return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "peer ip unparseable"}
			}
			peers = append(peers, tracker.Peer{IP: ip, Port: uint16(portVal.Int)})
		}
		return peers, nil
	default:
		return nil, &tracker.Error{Kind: tracker.BadResponse, Reason: "peers field has unexpected type"}
	}
}
