// Package torrentfs ties the core components (bencode, metainfo, fstree,
// piece, tracker, filestream, fsnode) together behind one Config, following
// the teacher's top-level Config/LoadConfig/DefaultConfig shape.
package torrentfs

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds every tunable named in SPEC_FULL.md §3/§4/§5.
type Config struct {
	// DepthLimit bounds bencode list/dictionary nesting during decode.
	DepthLimit int `yaml:"depth_limit"`

	// MaxLocationLength bounds every fstree node's Location string.
	MaxLocationLength int `yaml:"max_location_length"`

	// URLBufferSize bounds an assembled tracker announce URL.
	URLBufferSize int `yaml:"url_buffer_size"`

	// AnnounceTimeout bounds a single tracker HTTP request.
	AnnounceTimeout time.Duration `yaml:"announce_timeout"`

	// StreamPokeInterval and StreamReadTimeout bound FileStream.Read's soft
	// timeout loop: poll the piece provider every StreamPokeInterval, give
	// up and return a short read after StreamReadTimeout.
	StreamPokeInterval time.Duration `yaml:"stream_poke_interval"`
	StreamReadTimeout  time.Duration `yaml:"stream_read_timeout"`

	// ReadAheadPieces is how many pieces ahead of the current read position
	// get a read-ahead deadline hint on Seek/construction.
	ReadAheadPieces int `yaml:"read_ahead_pieces"`

	// PeerIDPrefix is copied into the first bytes of every generated peer
	// ID, following the teacher's fixed-prefix + random-tail scheme.
	PeerIDPrefix string `yaml:"peer_id_prefix"`
}

// DefaultConfig matches the recommended defaults of spec.md §4.1/§4.4/§5.
var DefaultConfig = Config{
	DepthLimit:         256,
	MaxLocationLength:  4096,
	URLBufferSize:      4096,
	AnnounceTimeout:    30 * time.Second,
	StreamPokeInterval: 100 * time.Millisecond,
	StreamReadTimeout:  60 * time.Second,
	ReadAheadPieces:    4,
	PeerIDPrefix:       "-TF0001-",
}

// LoadConfig reads filename as YAML over DefaultConfig, per the teacher's
// LoadConfig: a missing file is not an error, it just yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	c := DefaultConfig
	b, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
