package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/telship/internal/cliconfig"
	"github.com/bft-labs/telship/pkg/config"
	"github.com/bft-labs/telship/pkg/log"
	"github.com/bft-labs/telship/pkg/telship"
)

const longHelp = `Ship newline-delimited JSON telemetry envelopes to an ingestion endpoint.

Each input line is one serialized envelope. Lines are batched, retried with
exponential backoff on throttling and server errors, and persisted in the
selected storage so a crashed run resends what was not confirmed.`

var exampleUsage = strings.TrimSpace(`
  telship --endpoint https://ingest.example.com/v2/track --input events.ndjson
  tail -f app.log | telship --storage sqlite --sqlite-path /var/lib/telship/buf.db
  telship --config $HOME/.telship/config.yaml --log-level debug
`)

// maxLineBytes bounds a single input envelope.
const maxLineBytes = 16 << 20

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// tally counts delivery outcomes for the final summary.
type tally struct {
	telship.BaseEventHandler

	mu        sync.Mutex
	delivered int
	dropped   int
	retried   int
}

func (t *tally) OnDelivered(e telship.DeliveredEvent) {
	t.mu.Lock()
	t.delivered += e.Items
	t.mu.Unlock()
}

func (t *tally) OnDropped(e telship.DroppedEvent) {
	t.mu.Lock()
	t.dropped += e.Items
	t.mu.Unlock()
}

func (t *tally) OnRetryScheduled(e telship.RetryScheduledEvent) {
	t.mu.Lock()
	t.retried += e.Items
	t.mu.Unlock()
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var beacon bool

	root := &cobra.Command{
		Use:           "telship",
		Short:         "Ship newline-delimited JSON telemetry to an ingestion endpoint",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if changed["beacon"] {
				cfg.Settings.IsBeaconAPIDisabled = !beacon
			}
			// Flag values only; file and env are layered again on reload.
			base := cfg

			watch := cfgFile != "" && cliconfig.FileExists(cfgFile)
			if watch {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if changed["config"] {
				return fmt.Errorf("config file %s not found", cfgFile)
			}

			// TELSHIP_* override the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cliconfig.Logger(os.Stderr, cfg.LogLevel)
			logger.Info("configuration",
				log.String("endpoint", cfg.Settings.EndpointURL),
				log.String("storage", cfg.Storage),
				log.Duration("batch_interval", cfg.Settings.MaxBatchInterval),
				log.Int("max_batch_bytes", cfg.Settings.MaxBatchSizeInBytes))

			store, closeStore, err := cliconfig.OpenStorage(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					logger.Warn("close storage", log.Err(err))
				}
			}()

			counts := &tally{}
			opts := []telship.Option{
				telship.WithLogger(logger),
				telship.WithStorage(store),
				telship.WithEventHandler(counts),
			}
			if cfg.KeyPrefix != "" {
				opts = append(opts, telship.WithKeyPrefix(cfg.KeyPrefix))
			}
			if watch {
				opts = append(opts, telship.WithConfigFile(cfgFile, cliconfig.Loader(base, changed)))
			}

			client, err := telship.New(config.NewStatic(cfg.Settings), opts...)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start client: %w", err)
			}

			in := io.Reader(os.Stdin)
			if cfg.Input != "" {
				f, err := os.Open(cfg.Input)
				if err != nil {
					_ = client.Stop()
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			readErr := make(chan error, 1)
			go func() {
				readErr <- track(client, in)
			}()

			select {
			case err = <-readErr:
				if err != nil {
					logger.Error("read input", log.Err(err))
				}
			case <-ctx.Done():
				logger.Info("received signal, stopping...")
			}

			if stopErr := client.Stop(); stopErr != nil {
				return fmt.Errorf("stop client: %w", stopErr)
			}

			counts.mu.Lock()
			logger.Info("done",
				log.Int("delivered", counts.delivered),
				log.Int("dropped", counts.dropped),
				log.Int("retried", counts.retried),
				log.Int("pending", client.Pending()))
			counts.mu.Unlock()
			return err
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file, TOML or YAML (default: $HOME/.telship/config.toml)")
	f.StringVar(&cfg.Input, "input", cfg.Input, "newline-delimited JSON file to ship (default: stdin)")
	f.StringVar(&cfg.Settings.EndpointURL, "endpoint", cfg.Settings.EndpointURL, "ingestion endpoint URL")
	f.StringVar(&cfg.Settings.Origin, "origin", cfg.Settings.Origin, "scheme://host the telemetry originates from")
	f.IntVar(&cfg.Settings.MaxBatchSizeInBytes, "max-batch-bytes", cfg.Settings.MaxBatchSizeInBytes, "flush before a batch grows past this many bytes")
	f.DurationVar(&cfg.Settings.MaxBatchInterval, "batch-interval", cfg.Settings.MaxBatchInterval, "flush timer delay")
	f.BoolVar(&cfg.Settings.EmitLineDelimitedJSON, "line-delimited", cfg.Settings.EmitLineDelimitedJSON, "send newline-delimited batches instead of a JSON array")
	f.BoolVar(&cfg.Settings.IsRetryDisabled, "disable-retry", cfg.Settings.IsRetryDisabled, "drop batches instead of retrying throttled or failed sends")
	f.BoolVar(&beacon, "beacon", false, "use fire-and-forget delivery")
	f.BoolVar(&cfg.Settings.CompressRequests, "compress", cfg.Settings.CompressRequests, "gzip request bodies")
	f.StringVar(&cfg.Storage, "storage", cfg.Storage, "buffer storage: memory, dir, redis or sqlite")
	f.StringVar(&cfg.StorageDir, "storage-dir", cfg.StorageDir, "directory for dir storage")
	f.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis:// URL for redis storage")
	f.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "database file for sqlite storage")
	f.StringVar(&cfg.KeyPrefix, "key-prefix", cfg.KeyPrefix, "prefix of the buffer's storage keys")
	f.DurationVar(&cfg.Settings.HTTPTimeout, "timeout", cfg.Settings.HTTPTimeout, "HTTP timeout per send")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "telship: %v\n", err)
		os.Exit(1)
	}
}

// track sends every non-blank line of r.
func track(client *telship.Client, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		client.Track(line)
	}
	return sc.Err()
}
