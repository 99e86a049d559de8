package miner

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/screa/eth-vanity-miner/internal/config"
	"github.com/screa/eth-vanity-miner/internal/logger"
	"github.com/screa/eth-vanity-miner/pkg/estimate"
	"github.com/screa/eth-vanity-miner/pkg/keygen"
	"github.com/screa/eth-vanity-miner/pkg/types"
	"github.com/screa/eth-vanity-miner/pkg/worker"
)

// Errors
var (
	ErrNoWorkers = errors.New("search needs at least one worker")
	ErrNoResult  = errors.New("all workers exited without a match")
	ErrStopped   = errors.New("search stopped")
)

// Search runs a blocking search for pattern with workers goroutines and
// returns the first matching key pair. There is no timeout: an unreachable
// pattern blocks forever, so validate it with pattern.IsPossiblePattern first.
func Search(pat string, workers int) (types.KeyPair, error) {
	cfg := config.NewConfig()
	cfg.Prefix = pat
	cfg.Workers = workers

	result, err := NewMiner(cfg, logger.Discard()).Mine(context.Background())
	if err != nil {
		return types.KeyPair{}, err
	}
	return result.KeyPair, nil
}

// Miner coordinates a single search. It is not reusable: create a new
// Miner for each search.
type Miner struct {
	config       *config.Config
	logger       *logger.Logger
	attempts     int64
	found        atomic.Bool
	bestResult   *types.Result
	mu           sync.RWMutex
	done         chan struct{}
	wg           sync.WaitGroup
	once         sync.Once
	stopped      atomic.Bool
	start        time.Time
	workerConfig *types.WorkerConfig
	difficulty   uint64

	newGenerator func() (keygen.Generator, error)
}

// NewMiner creates a new miner instance
func NewMiner(cfg *config.Config, log *logger.Logger) *Miner {
	// the pattern is used as given; callers strip any 0x beforehand
	workerConfig := &types.WorkerConfig{
		Pattern:    cfg.Prefix,
		IgnoreCase: cfg.IgnoreCase,
	}

	backend := cfg.Backend
	return &Miner{
		config:       cfg,
		logger:       log,
		done:         make(chan struct{}),
		workerConfig: workerConfig,
		difficulty:   estimate.Difficulty(workerConfig.Pattern, cfg.CaseSensitive()),
		newGenerator: func() (keygen.Generator, error) { return keygen.New(backend) },
	}
}

// Mine runs the search until a worker finds a match, ctx is cancelled or
// Stop is called. All workers have exited when Mine returns.
func (m *Miner) Mine(ctx context.Context) (*types.Result, error) {
	workers := m.config.Workers
	if workers <= 0 {
		return nil, ErrNoWorkers
	}
	if m.config.Verbose && m.config.LogInterval < 1 {
		return nil, config.ErrInvalidInterval
	}

	// one generator per worker, created up front so a bad backend fails fast
	gens := make([]keygen.Generator, workers)
	for i := range gens {
		gen, err := m.newGenerator()
		if err != nil {
			return nil, err
		}
		gens[i] = gen
	}

	m.mu.Lock()
	m.start = time.Now()
	m.mu.Unlock()

	// capacity covers every worker so a send can never block
	results := make(chan *types.WorkerResult, workers)

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i, gens[i], results)
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-finished:
		}
	}()

	// Start periodic logging if verbose mode is enabled
	var logTicker *time.Ticker
	logDone := make(chan struct{})
	if m.config.Verbose {
		m.logger.Printf("Mining started with %d workers, logging every %d seconds...",
			workers, m.config.LogInterval)

		interval := time.Duration(m.config.LogInterval) * time.Second
		logTicker = time.NewTicker(interval)
		go func() {
			defer close(logDone)
			m.periodicLogger(logTicker, finished)
		}()
	} else {
		close(logDone)
	}

	// Wait for completion
	m.wg.Wait()
	close(finished)
	<-logDone

	if logTicker != nil {
		logTicker.Stop()
	}

	select {
	case res := <-results:
		result := &types.Result{
			KeyPair:  res.KeyPair,
			Score:    res.Score,
			Attempts: atomic.LoadInt64(&m.attempts),
			Duration: time.Since(m.start),
		}
		m.mu.Lock()
		m.bestResult = result
		m.mu.Unlock()
		return result, nil
	default:
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.stopped.Load() {
		return nil, ErrStopped
	}
	return nil, ErrNoResult
}

// worker runs the mining logic for a single worker
func (m *Miner) worker(workerID int, gen keygen.Generator, results chan<- *types.WorkerResult) {
	defer m.wg.Done()

	w := worker.NewWorker(m.workerConfig, &m.attempts, gen)

	for {
		if m.found.Load() {
			return
		}
		select {
		case <-m.done:
			return
		default:
		}

		result, err := w.GenerateAddress()
		if err != nil {
			// without secure randomness this worker cannot continue
			m.logger.Printf("Worker %d stopped: %v", workerID, err)
			return
		}
		if result == nil {
			continue
		}

		if result.IsMatch {
			// only the worker that flips the flag delivers a result
			if m.found.CompareAndSwap(false, true) {
				results <- result
			}
			return
		}

		m.mu.Lock()
		if m.bestResult == nil || result.Score > m.bestResult.Score {
			m.bestResult = &types.Result{
				KeyPair:  result.KeyPair,
				Score:    result.Score,
				Attempts: result.Attempts,
			}
		}
		m.mu.Unlock()
	}
}

// Stop stops the mining process
func (m *Miner) Stop() {
	m.once.Do(func() {
		m.stopped.Store(true)
		close(m.done)
	})
}

// GetBestResult returns the match once found, otherwise the candidate with
// the most leading characters matched so far. Nil before any attempt.
func (m *Miner) GetBestResult() *types.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.bestResult == nil {
		return nil
	}
	best := *m.bestResult
	if best.Duration == 0 {
		best.Duration = time.Since(m.start)
	}
	return &best
}

// Difficulty returns the expected number of attempts for this search
func (m *Miner) Difficulty() uint64 {
	return m.difficulty
}

// Stats returns the current performance statistics.
// This method is safe to call concurrently from any goroutine.
func (m *Miner) Stats() types.Stats {
	attempts := atomic.LoadInt64(&m.attempts)

	m.mu.RLock()
	start := m.start
	bestScore := 0
	if m.bestResult != nil {
		bestScore = m.bestResult.Score
	}
	m.mu.RUnlock()

	var elapsed time.Duration
	if !start.IsZero() {
		elapsed = time.Since(start)
	}

	// Calculate rate safely
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(attempts) / elapsed.Seconds()
	}

	return types.Stats{
		Attempts:  attempts,
		HashRate:  rate,
		Elapsed:   elapsed,
		BestScore: bestScore,
	}
}

// ETA returns the estimated seconds left at the current hash rate, and
// false when the rate is still unknown.
func (m *Miner) ETA() (uint64, bool) {
	stats := m.Stats()
	total := estimate.EstimatedTotal(uint64(stats.HashRate), m.difficulty)
	if total == 0 && stats.HashRate < 1 {
		return 0, false
	}
	return estimate.TimeRemaining(total, uint64(stats.Elapsed.Seconds())), true
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ticker *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			stats := m.Stats()
			bestResult := m.GetBestResult()

			eta := "unknown"
			if left, ok := m.ETA(); ok {
				eta = formatSeconds(left)
			}

			if bestResult != nil {
				m.logger.Printf("Progress: %d attempts, %.2f keys/sec, Best: %s (%d/%d), ETA: %s",
					stats.Attempts, stats.HashRate, bestResult.AddressHex(),
					bestResult.Score, len(m.workerConfig.Pattern), eta)
			} else {
				m.logger.Printf("Progress: %d attempts, %.2f keys/sec, No match yet, ETA: %s",
					stats.Attempts, stats.HashRate, eta)
			}
		case <-done:
			return
		}
	}
}

// formatSeconds renders a second count as a duration, saturating at the
// largest time.Duration.
func formatSeconds(secs uint64) string {
	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return "> " + time.Duration(math.MaxInt64).Truncate(time.Hour).String()
	}
	return (time.Duration(secs) * time.Second).String()
}
