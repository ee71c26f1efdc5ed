package torrentfs

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	c, err := LoadConfig("/tmp/torrentfs-test-config-missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, *c)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	const filename = "/tmp/torrentfs-test-config.yaml"
	err := os.WriteFile(filename, []byte("announce_timeout: 5000000000\npeer_id_prefix: \"-XX0001-\"\n"), 0o644)
	require.NoError(t, err)
	defer os.Remove(filename)

	c, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.AnnounceTimeout)
	assert.Equal(t, "-XX0001-", c.PeerIDPrefix)
	assert.Equal(t, DefaultConfig.StreamReadTimeout, c.StreamReadTimeout)
}
