// Command download-papertrail fetches archived log files from the
// Papertrail archive API.
//
// Archives are addressed by hour in the form "YYYY-MM-DD-HH". Downloads run
// on a bounded worker pool behind a global request throttle; each archive
// succeeds or fails on its own, and the exit code reflects the aggregate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	"github.com/oatmealdealer/download-papertrail/internal/client"
	"github.com/oatmealdealer/download-papertrail/internal/config"
	"github.com/oatmealdealer/download-papertrail/internal/download"
	"github.com/oatmealdealer/download-papertrail/internal/progress"
	"github.com/oatmealdealer/download-papertrail/internal/ratelimit"
	"github.com/oatmealdealer/download-papertrail/internal/sink"
	"github.com/oatmealdealer/download-papertrail/pkg/archive"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitAuthError      = 3
	ExitPartialFailure = 4
	ExitTotalFailure   = 5
)

func main() {
	// .env is optional; a missing file is not an error.
	godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "download-papertrail",
		Usage:     "download archived log files from Papertrail",
		ArgsUsage: "IDENTIFIER [IDENTIFIER...]",
		Description: `Downloads the named hourly archives ("YYYY-MM-DD-HH") into the output
location, one file per archive. A failed archive does not stop the rest
of the batch; the exit code distinguishes full, partial, and total
failure.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Papertrail API token",
				EnvVars: []string{"PAPERTRAIL_API_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				EnvVars: []string{"PAPERTRAIL_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Usage:   "how many archives to download at once",
				Value:   download.DefaultWorkers(),
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory, or a bucket URL",
				Value:   ".",
			},
			&cli.DurationFlag{
				Name:    "throttle-duration",
				Aliases: []string{"t"},
				Usage:   "minimum spacing between requests",
				Value:   200 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:    "deflate",
				Aliases: []string{"d"},
				Usage:   "decode from gzip before writing",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show periodic progress output",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitInvalidArgs)
	}

	if c.NArg() == 0 {
		return cli.Exit("Error: no archive identifiers given", ExitInvalidArgs)
	}
	ids, err := parseIdentifiers(c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitInvalidArgs)
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitInvalidArgs)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[download-papertrail] Received interrupt, shutting down...")
		cancel()
	}()

	bucket, err := openBucket(ctx, cfg.Out)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitGeneralError)
	}
	defer bucket.Close()

	copts := cfg.ClientOptions()
	copts.Throttle = ratelimit.New(cfg.Throttle)

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalFiles: len(ids),
			Workers:    cfg.Concurrency,
		})
		reporter.Start()
	}

	batch, err := download.Download(ctx, ids, download.Options{
		Workers:  cfg.Concurrency,
		Decode:   cfg.Decode,
		Fetcher:  client.New(copts),
		Sink:     sink.New(bucket),
		Progress: reporter,
	})
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitGeneralError)
	}

	reportOutcomes(batch)

	if code := exitCode(batch); code != ExitSuccess {
		return cli.Exit("", code)
	}
	return nil
}

// loadConfig layers defaults, the optional config file, the environment,
// and finally explicit flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	if c.IsSet("api-token") {
		cfg.Token = c.String("api-token")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("out") {
		cfg.Out = c.String("out")
	}
	if c.IsSet("throttle-duration") {
		cfg.Throttle = c.Duration("throttle-duration")
	}
	if c.IsSet("deflate") {
		cfg.Decode = c.Bool("deflate")
	}
	if c.IsSet("progress") {
		cfg.Progress = c.Bool("progress")
	}

	return cfg, nil
}

// parseIdentifiers validates every identifier before any task is created;
// a single malformed one fails the whole invocation.
func parseIdentifiers(raws []string) ([]archive.Identifier, error) {
	ids := make([]archive.Identifier, len(raws))
	for i, raw := range raws {
		id, err := archive.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// openBucket opens the output location: a bucket URL if it has a scheme,
// otherwise an existing local directory.
func openBucket(ctx context.Context, out string) (*blob.Bucket, error) {
	if strings.Contains(out, "://") {
		return blob.OpenBucket(ctx, out)
	}

	info, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", out)
	}
	return fileblob.OpenBucket(out, nil)
}

// reportOutcomes prints one line per archive: successes to stdout,
// failures to stderr, failures grouped last.
func reportOutcomes(batch *download.Batch) {
	outcomes := make([]download.Outcome, len(batch.Outcomes))
	copy(outcomes, batch.Outcomes)
	sort.SliceStable(outcomes, func(i, j int) bool {
		return !outcomes[i].Failed() && outcomes[j].Failed()
	})

	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprintf(os.Stderr, "Error: %s: %s: %v\n", o.ID, o.Kind, o.Err)
			continue
		}
		fmt.Printf("Downloaded %s (%s)\n", o.ID, progress.FormatBytes(o.Bytes))
	}
}

// exitCode derives the process exit code from the aggregate outcome.
func exitCode(batch *download.Batch) int {
	switch {
	case batch.AuthFailed():
		return ExitAuthError
	case batch.OK():
		return ExitSuccess
	case batch.Succeeded() == 0:
		return ExitTotalFailure
	default:
		return ExitPartialFailure
	}
}
