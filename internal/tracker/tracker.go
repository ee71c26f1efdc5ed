// Package tracker builds announce requests, decodes bencoded tracker
// responses, and yields peer lists, per spec.md §4.5.
package tracker

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/torrentfs/internal/torrentfs"
)

// DefaultURLBufferSize bounds the assembled announce URL. Exceeding it fails
// the request before it is issued.
const DefaultURLBufferSize = 4096

// Request carries the parameters of a single announce call.
type Request struct {
	InfoHash   [20]byte
	PeerID     [20]byte
	Port       uint16
	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	Event      Event
}

// Peer is one entry of a tracker's peer list.
type Peer struct {
	IP   net.IP
	Port uint16
}

func (p Peer) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

// Response is a decoded, successful announce response.
type Response struct {
	Interval    time.Duration
	MinInterval time.Duration
	Warning     string
	Peers       []Peer
}

// ErrorKind enumerates the ways an announce can fail.
type ErrorKind int

const (
	Transport ErrorKind = iota
	BadResponse
	Failure
)

func (k ErrorKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case BadResponse:
		return "bad response"
	case Failure:
		return "failure"
	default:
		return "unknown tracker error"
	}
}

// Error reports why an announce failed. For Failure, Reason is the tracker's
// own failure reason; for the other kinds it describes the problem.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("tracker: %s", e.Kind)
	}
	return fmt.Sprintf("tracker: %s: %s", e.Kind, e.Reason)
}

// TransportClient is the external collaborator that actually performs the
// GET, per spec.md §6's "Tracker transport" interface.
type TransportClient interface {
	Get(ctx context.Context, url string, timeout time.Duration) ([]byte, int, error)
}

// unreservedByte reports whether b may appear unescaped in a URL query
// component, per RFC 3986's unreserved set. Every other byte of a binary
// value is percent-escaped, matching the original implementation's use of
// libcurl's byte-exact escaper rather than a form-encoding helper that
// treats space specially.
func unreservedByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	default:
		return false
	}
}

// escapeBinary percent-escapes every non-unreserved byte of b, per
// spec.md §4.5 ("every non-unreserved byte becomes %HH").
func escapeBinary(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	const hex = "0123456789ABCDEF"
	for _, c := range b {
		if unreservedByte(c) {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&0xf])
		}
	}
	return sb.String()
}

// BuildAnnounceURL assembles the request URL for req against announce, per
// spec.md §4.5's assembly rules. It fails with BadResponse (without issuing
// any request) if the result would exceed bufSize bytes; bufSize <= 0 means
// DefaultURLBufferSize.
func BuildAnnounceURL(announce string, req Request, bufSize int) (string, error) {
	if bufSize <= 0 {
		bufSize = DefaultURLBufferSize
	}

	var sb strings.Builder
	sb.WriteString(announce)
	if strings.Contains(announce, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString("info_hash=")
	sb.WriteString(escapeBinary(req.InfoHash[:]))
	sb.WriteString("&peer_id=")
	sb.WriteString(escapeBinary(req.PeerID[:]))
	sb.WriteString("&port=")
	sb.WriteString(strconv.FormatUint(uint64(req.Port), 10))
	sb.WriteString("&uploaded=")
	sb.WriteString(strconv.FormatUint(req.Uploaded, 10))
	sb.WriteString("&downloaded=")
	sb.WriteString(strconv.FormatUint(req.Downloaded, 10))
	sb.WriteString("&left=")
	sb.WriteString(strconv.FormatUint(req.Left, 10))
	sb.WriteString("&event=")
	sb.WriteString(req.Event.String())

	u := sb.String()
	if len(u) > bufSize {
		return "", &Error{Kind: BadResponse, Reason: "announce url overflow"}
	}
	if _, err := url.Parse(u); err != nil {
		return "", &Error{Kind: BadResponse, Reason: "malformed announce url"}
	}
	return u, nil
}

// GeneratePeerID fills a 20-byte peer ID: a fixed client prefix followed by
// bytes drawn from r (torrentfs.CryptoRandom in production). Each call draws
// a new tail from r. Grounded on the teacher's generatePeerID in client.go.
func GeneratePeerID(prefix string, r torrentfs.Random) ([20]byte, error) {
	var id [20]byte
	n := copy(id[:], prefix)
	if err := r.Fill(id[n:]); err != nil {
		return id, err
	}
	return id, nil
}
