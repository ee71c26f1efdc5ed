// Command torrentfs is a small CLI over the core library: inspect a
// .torrent file's metainfo, print its directory tree, or announce to its
// tracker. Grounded on the teacher's cmd/rain/rain.go and
// cmd/rain-metadata/rain-metadata.go (flag parsing, config loading,
// SetLogLevel), generalized into github.com/urfave/cli subcommands since
// this CLI exposes more than one single-shot operation.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hokaccha/go-prettyjson"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"

	"github.com/cenkalti/log"

	coretorrentfs "github.com/cenkalti/torrentfs"
	"github.com/cenkalti/torrentfs/internal/bencode"
	"github.com/cenkalti/torrentfs/internal/fstree"
	"github.com/cenkalti/torrentfs/internal/logger"
	"github.com/cenkalti/torrentfs/internal/metainfo"
	"github.com/cenkalti/torrentfs/internal/torrentfs"
	"github.com/cenkalti/torrentfs/internal/tracker"
	"github.com/cenkalti/torrentfs/internal/tracker/httptracker"
)

func main() {
	app := cli.NewApp()
	app.Name = "torrentfs"
	app.Usage = "inspect .torrent files without downloading anything"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Value: "~/.torrentfs.yaml", Usage: "config file"},
		cli.BoolFlag{Name: "debug, d", Usage: "enable debug log"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "info",
			Usage:     "print metainfo fields as JSON",
			ArgsUsage: "<torrent-file>",
			Action:    withTorrent(infoCommand),
		},
		{
			Name:      "tree",
			Usage:     "print the directory tree the .torrent file describes",
			ArgsUsage: "<torrent-file>",
			Action:    withTorrent(treeCommand),
		},
		{
			Name:      "announce",
			Usage:     "perform one announce request and print the peer list",
			ArgsUsage: "<torrent-file>",
			Action:    withTorrent(announceCommand),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withTorrent loads the config file (expanding ~) and parses the .torrent
// file named by the command's first argument before running cmd, mirroring
// the teacher's cmd/rain/rain.go homedir.Expand + LoadConfig sequence.
func withTorrent(cmd func(c *cli.Context, cfg *coretorrentfs.Config, m *metainfo.Metainfo) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logger.SetLevel(log.DEBUG)
		}
		configFile, err := homedir.Expand(c.GlobalString("config"))
		if err != nil {
			return err
		}
		cfg, err := coretorrentfs.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if c.NArg() < 1 {
			return cli.NewExitError("a .torrent file path is required", 1)
		}
		path := c.Args().First()
		m, err := parseTorrentFile(path, cfg)
		if err != nil {
			return err
		}
		// spec.md §3: a torrent with no "creation date" field defaults to
		// the host's reported creation time of the backing file.
		if err := torrentfs.DefaultCreationDate(m, torrentfs.FileByteSource{Path: path}); err != nil {
			return err
		}
		return cmd(c, cfg, m)
	}
}

func parseTorrentFile(path string, cfg *coretorrentfs.Config) (*metainfo.Metainfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	df, err := bencode.DecodeWithOptions(b, bencode.Options{MaxDepth: cfg.DepthLimit})
	if err != nil {
		return nil, err
	}
	return metainfo.Validate(b, df)
}

func infoCommand(c *cli.Context, cfg *coretorrentfs.Config, m *metainfo.Metainfo) error {
	infoHash, err := m.InfoHashMultihash()
	if err != nil {
		return err
	}
	out := map[string]any{
		"name":          m.Info.Name,
		"info_hash":     infoHash,
		"piece_length":  m.Info.PieceLength,
		"num_pieces":    m.Info.NumPieces,
		"total_length":  m.Info.TotalLength,
		"multi_file":    m.Info.MultiFile(),
		"announce":      m.Announce,
		"creation_date": time.Unix(m.CreationDate, 0).UTC().Format(time.RFC3339),
	}
	s, err := prettyjson.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(s))
	return nil
}

func treeCommand(c *cli.Context, cfg *coretorrentfs.Config, m *metainfo.Metainfo) error {
	tree, err := fstree.BuildWithOptions(&m.Info, fstree.Options{MaxLocationLength: cfg.MaxLocationLength})
	if err != nil {
		return err
	}
	fmt.Print(tree.Root.String())
	return nil
}

func announceCommand(c *cli.Context, cfg *coretorrentfs.Config, m *metainfo.Metainfo) error {
	peerID, err := tracker.GeneratePeerID(cfg.PeerIDPrefix, torrentfs.CryptoRandom{})
	if err != nil {
		return err
	}
	req := tracker.Request{
		InfoHash: m.InfoHash,
		PeerID:   peerID,
		Port:     6881,
		Left:     uint64(m.Info.TotalLength),
		Event:    tracker.EventStarted,
	}

	client := httptracker.New(m.Announce)
	client.URLBufSize = cfg.URLBufferSize
	defer client.Close()

	resp, err := client.Announce(context.Background(), req, cfg.AnnounceTimeout)
	if err != nil {
		return err
	}

	fmt.Printf("interval: %s\n", resp.Interval)
	if resp.Warning != "" {
		fmt.Printf("warning: %s\n", resp.Warning)
	}
	for _, p := range resp.Peers {
		fmt.Println(p.String())
	}
	return nil
}
