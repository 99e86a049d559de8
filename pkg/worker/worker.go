package worker

import (
	"hash"
	"sync/atomic"

	"github.com/screa/eth-vanity-miner/internal/crypto"
	"github.com/screa/eth-vanity-miner/pkg/keygen"
	"github.com/screa/eth-vanity-miner/pkg/pattern"
	"github.com/screa/eth-vanity-miner/pkg/types"
)

// Worker handles individual key generation and matching
type Worker struct {
	config    *types.WorkerConfig
	attempts  *int64
	generator keygen.Generator
	matcher   *pattern.Matcher
	bestScore int

	// Pre-allocated buffers for performance
	candidate keygen.Candidate
	hasher    hash.Hash
	hashBuf   [32]byte
	lowerBuf  [crypto.AddressHexLen]byte
	checkBuf  [crypto.AddressHexLen]byte
	checked   bool // checkBuf holds the current candidate
}

// NewWorker creates a new worker instance. attempts is shared between all
// workers of a search and updated atomically.
func NewWorker(config *types.WorkerConfig, attempts *int64, gen keygen.Generator) *Worker {
	return &Worker{
		config:    config,
		attempts:  attempts,
		generator: gen,
		matcher:   pattern.NewMatcher(config.Pattern, config.IgnoreCase),
		bestScore: -1,
		hasher:    crypto.NewKeccak256(),
	}
}

// GenerateAddress generates one key pair, formats its address and scores it.
// It returns nil when the candidate is neither a full match nor better than
// anything this worker has seen before, so the caller only handles
// interesting candidates. An error means the entropy source failed.
func (w *Worker) GenerateAddress() (*types.WorkerResult, error) {
	if err := w.generator.Generate(&w.candidate); err != nil {
		return nil, err
	}

	attempts := atomic.AddInt64(w.attempts, 1)

	crypto.HexEncodeLower(w.lowerBuf[:], w.candidate.Address[:])
	w.checked = false

	score := w.matcher.Score(string(w.lowerBuf[:]), w.checksum)

	isMatch := score == w.matcher.Len()
	if !isMatch && score <= w.bestScore {
		return nil, nil
	}
	w.bestScore = score

	return &types.WorkerResult{
		KeyPair:  w.candidate.KeyPair(w.checksum()),
		Score:    score,
		Attempts: attempts,
		IsMatch:  isMatch,
	}, nil
}

// BestScore returns the highest score this worker has produced, or -1
func (w *Worker) BestScore() int {
	return w.bestScore
}

// checksum returns the EIP-55 form of lowerBuf, hashing at most once per
// candidate
func (w *Worker) checksum() string {
	if !w.checked {
		w.checkBuf = w.lowerBuf
		crypto.ChecksumInto(w.hasher, w.checkBuf[:], w.hashBuf[:])
		w.checked = true
	}
	return string(w.checkBuf[:])
}
