package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/screa/eth-vanity-miner/internal/config"
	logpkg "github.com/screa/eth-vanity-miner/internal/logger"
	"github.com/screa/eth-vanity-miner/pkg/estimate"
	"github.com/screa/eth-vanity-miner/pkg/keygen"
	minerpkg "github.com/screa/eth-vanity-miner/pkg/miner"
	"github.com/screa/eth-vanity-miner/pkg/types"
)

const progressRate = 250 * time.Millisecond

var (
	v          = config.NewViper()
	configFile string
	logger     *logpkg.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "vanity-miner",
		Short: "Ethereum vanity address miner",
		Long: `A command line utility for finding Ethereum key pairs whose
EIP-55 checksummed address starts with a given hex pattern.
Keys are generated at random on every CPU core until one matches.`,
		Example:       "  vanity-miner --prefix dead --workers 8\n  VANITY_PREFIX=c0ffee vanity-miner --ignore-case",
		RunE:          runMiner,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.IntP(config.KeyWorkers, "w", runtime.NumCPU(), "Number of worker goroutines")
	flags.StringP(config.KeyPrefix, "p", "", "Address prefix to match (hex, checksum casing applies)")
	flags.BoolP(config.KeyIgnoreCase, "c", false, "Match hex digits regardless of checksum casing")
	flags.StringP(config.KeyBackend, "b", keygen.BackendGeth, "Key generation backend: "+strings.Join(keygen.Backends(), ", "))
	flags.BoolP(config.KeyVerbose, "v", false, "Verbose output")
	flags.StringP(config.KeyLogFile, "l", "", "Log file for progress tracking (default: stdout)")
	flags.IntP(config.KeyLogInterval, "i", 5, "Logging interval in seconds")
	flags.DurationP(config.KeyTimeout, "t", 0, "Give up after this long (0 = no limit)")
	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return rootCmd
}

func runMiner(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	miner := minerpkg.NewMiner(cfg, logger)

	logger.Printf("Starting vanity miner with %d workers (%s backend)...", cfg.Workers, cfg.Backend)
	logger.Printf("Target: %s", cfg.GetTargetDescription())
	if cfg.IsZeroPrefix() && cfg.CaseSensitive() {
		logger.Println("Zero prefix has no letters: checksum casing cannot affect the match.")
	}
	logger.Printf("Difficulty: 1 in %s", humanize.Commaf(float64(miner.Difficulty())))

	// Set up signal handling for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var bar *progressbar.ProgressBar
	progressDone := make(chan struct{})
	progressStopped := make(chan struct{})
	if !cfg.Verbose {
		bar = newProgressBar(cmd.ErrOrStderr())
		go func() {
			defer close(progressStopped)
			trackProgress(bar, miner, progressDone)
		}()
	} else {
		close(progressStopped)
	}

	result, err := miner.Mine(ctx)
	close(progressDone)
	<-progressStopped
	if bar != nil {
		_ = bar.Clear()
	}

	out := cmd.OutOrStdout()
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Println("Received interrupt signal (Ctrl+C). Mining stopped by user.")
		case errors.Is(err, context.DeadlineExceeded):
			logger.Printf("Timed out after %v.", cfg.Timeout)
		default:
			return err
		}
		if best := miner.GetBestResult(); best != nil {
			fmt.Fprintln(out, color.YellowString("Closest address found (%d/%d characters):", best.Score, len(cfg.Prefix)))
			printResult(out, best)
		} else {
			fmt.Fprintln(out, "No addresses generated.")
		}
		return nil
	}

	// independent re-derivation before handing out the key
	if err := keygen.Verify(result.KeyPair); err != nil {
		return fmt.Errorf("result failed verification: %w", err)
	}

	fmt.Fprintln(out, color.New(color.FgGreen, color.Bold).Sprint("Found match!"))
	printResult(out, result)
	fmt.Fprintln(out, color.New(color.FgRed, color.Bold).Sprint("Keep this private key secret!"))
	return nil
}

func printResult(out io.Writer, result *types.Result) {
	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}

	fmt.Fprintf(out, "Address:     %s\n", color.CyanString(result.AddressHex()))
	fmt.Fprintf(out, "Private key: %s\n", color.MagentaString(result.PrivateKey))
	fmt.Fprintf(out, "Attempts:    %s\n", humanize.Comma(result.Attempts))
	fmt.Fprintf(out, "Duration:    %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Rate:        %s keys/sec\n", humanize.Commaf(float64(int64(rate))))
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	// the bar tracks the probability of having found a match, in permille
	return progressbar.NewOptions64(1000,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("searching"),
		progressbar.OptionThrottle(progressRate),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionFullWidth(),
	)
}

func trackProgress(bar *progressbar.ProgressBar, miner *minerpkg.Miner, done <-chan struct{}) {
	ticker := time.NewTicker(progressRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := miner.Stats()
			p := estimate.Probability(uint64(stats.Attempts), miner.Difficulty())
			_ = bar.Set64(int64(p * 1000))

			eta := "?"
			if left, ok := miner.ETA(); ok {
				eta = formatETA(left)
			}
			bar.Describe(fmt.Sprintf("%s keys | %s/s | best %d | eta %s",
				humanize.Comma(stats.Attempts), humanize.Commaf(float64(int64(stats.HashRate))),
				stats.BestScore, strings.TrimSpace(eta)))
		case <-done:
			return
		}
	}
}

// formatETA renders seconds as "3 minutes", capping at a century
func formatETA(secs uint64) string {
	const century = 100 * 365 * 24 * 3600
	if secs > century {
		return "> 100 years"
	}
	now := time.Now()
	return humanize.RelTime(now, now.Add(time.Duration(secs)*time.Second), "", "")
}

func setupLogging(cfg *config.Config) (func(), error) {
	if cfg.LogFile != "" {
		l, file, err := logpkg.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = l
		return func() { file.Close() }, nil
	}

	logger = logpkg.New()
	return func() {}, nil
}
