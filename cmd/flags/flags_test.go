package flags

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type parsed struct {
	listen  string
	metrics string
	debug   bool
	stores  []string
	drain   time.Duration
}

func runWithConfig(t *testing.T, args ...string) parsed {
	t.Helper()

	flags, before := WithConfigFile([]cli.Flag{
		&cli.StringFlag{Name: "listen-addr", Value: "127.0.0.1:8080"},
		&cli.StringFlag{Name: "metrics-addr", Value: "127.0.0.1:8090"},
		&cli.BoolFlag{Name: "log-debug"},
		&cli.StringSliceFlag{Name: "content-store"},
		&cli.Int64Flag{Name: "drain-seconds", Value: 45},
	})

	var got parsed
	app := &cli.App{
		Name:   "test",
		Flags:  flags,
		Before: before,
		Action: func(cCtx *cli.Context) error {
			got = parsed{
				listen:  cCtx.String("listen-addr"),
				metrics: cCtx.String("metrics-addr"),
				debug:   cCtx.Bool("log-debug"),
				stores:  cCtx.StringSlice("content-store"),
				drain:   time.Duration(cCtx.Int64("drain-seconds")) * time.Second,
			}
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return got
}

func TestWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	config := `listen-addr: 0.0.0.0:9000
metrics-addr: 0.0.0.0:9001
log-debug: true
content-store:
  - file:///var/lib/images
  - ipfs://127.0.0.1:5001
`
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	t.Run("values come from the file", func(t *testing.T) {
		got := runWithConfig(t, "--config", path)
		assert.Equal(t, "0.0.0.0:9000", got.listen)
		assert.Equal(t, "0.0.0.0:9001", got.metrics)
		assert.True(t, got.debug)
		assert.Equal(t, []string{"file:///var/lib/images", "ipfs://127.0.0.1:5001"}, got.stores)
	})

	t.Run("command line wins over the file", func(t *testing.T) {
		got := runWithConfig(t, "--config", path, "--listen-addr", "127.0.0.1:7000")
		assert.Equal(t, "127.0.0.1:7000", got.listen)
		assert.Equal(t, "0.0.0.0:9001", got.metrics)
	})

	t.Run("no config file keeps defaults", func(t *testing.T) {
		got := runWithConfig(t)
		assert.Equal(t, "127.0.0.1:8080", got.listen)
		assert.False(t, got.debug)
		assert.Empty(t, got.stores)
		assert.Equal(t, 45*time.Second, got.drain)
	})
}
