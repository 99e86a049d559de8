package types

import "time"

// KeyPair is a secp256k1 private key together with its derived address
type KeyPair struct {
	PrivateKey string // 64 lowercase hex characters
	Address    string // 40 EIP-55 checksummed hex characters, no 0x prefix
}

// AddressHex returns the 0x-prefixed checksummed address
func (k KeyPair) AddressHex() string {
	return "0x" + k.Address
}

// Result represents a mining result
type Result struct {
	KeyPair
	Score    int // leading characters matching the pattern
	Attempts int64
	Duration time.Duration
}

// WorkerConfig contains configuration for individual workers
type WorkerConfig struct {
	Pattern    string // normalized pattern, no 0x prefix
	IgnoreCase bool   // match against the lowercase address instead of checksum casing
}

// Stats holds real-time search statistics
type Stats struct {
	Attempts  int64
	HashRate  float64 // attempts per second
	Elapsed   time.Duration
	BestScore int
}

// WorkerResult represents a result from a single worker
type WorkerResult struct {
	KeyPair
	Score    int
	Attempts int64
	IsMatch  bool
}
