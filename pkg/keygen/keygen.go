// Package keygen produces random secp256k1 key pairs and their Ethereum
// addresses. Two interchangeable backends are provided; Verify re-derives an
// address with a third, independent implementation.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/screa/eth-vanity-miner/internal/crypto"
	"github.com/screa/eth-vanity-miner/pkg/types"
)

// Backend names
const (
	BackendGeth  = "geth"
	BackendBtcec = "btcec"
)

// Errors
var (
	ErrUnknownBackend    = errors.New("unknown key generation backend")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrAddressMismatch   = errors.New("address does not match private key")
	ErrInvalidAddress    = errors.New("address is not 40 hex characters")
)

// Candidate is one generated key pair in raw form
type Candidate struct {
	PrivateKey [32]byte
	Address    [crypto.AddressLen]byte
}

// KeyPair renders the candidate with the given checksummed address text
func (c *Candidate) KeyPair(checksummed string) types.KeyPair {
	return types.KeyPair{
		PrivateKey: hex.EncodeToString(c.PrivateKey[:]),
		Address:    checksummed,
	}
}

// Generator produces random candidates. Implementations keep per-instance
// scratch buffers and are not safe for concurrent use; give each worker
// its own.
type Generator interface {
	// Generate returns a fresh random candidate. An error means the
	// random source failed and no further candidates can be trusted.
	Generate(c *Candidate) error

	// Name returns the backend name
	Name() string
}

// Backends lists the accepted backend names
func Backends() []string {
	return []string{BackendGeth, BackendBtcec}
}

// New returns a Generator for the named backend
func New(backend string) (Generator, error) {
	switch backend {
	case "", BackendGeth:
		return NewGethGenerator(rand.Reader), nil
	case BackendBtcec:
		return NewBtcecGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// GethGenerator draws 32-byte scalars from an io.Reader and uses
// go-ethereum to derive the public key. Out-of-range scalars are rejected
// and redrawn, so keys are uniform over [1, N-1].
type GethGenerator struct {
	rand    io.Reader
	hasher  hash.Hash
	hashBuf [32]byte
}

// NewGethGenerator creates a generator reading entropy from r
func NewGethGenerator(r io.Reader) *GethGenerator {
	return &GethGenerator{
		rand:   r,
		hasher: crypto.NewKeccak256(),
	}
}

// Name returns the backend name
func (g *GethGenerator) Name() string {
	return BackendGeth
}

// Generate fills c with a new key pair
func (g *GethGenerator) Generate(c *Candidate) error {
	for {
		if _, err := io.ReadFull(g.rand, c.PrivateKey[:]); err != nil {
			return fmt.Errorf("reading entropy: %w", err)
		}
		key, err := gethcrypto.ToECDSA(c.PrivateKey[:])
		if err != nil {
			// zero or >= N, draw again
			continue
		}
		pub := gethcrypto.FromECDSAPub(&key.PublicKey)
		crypto.PubKeyToAddressInto(g.hasher, pub, g.hashBuf[:], c.Address[:])
		return nil
	}
}

// BtcecGenerator uses btcsuite's btcec for key generation
type BtcecGenerator struct {
	hasher  hash.Hash
	hashBuf [32]byte
}

// NewBtcecGenerator creates a btcec-backed generator
func NewBtcecGenerator() *BtcecGenerator {
	return &BtcecGenerator{hasher: crypto.NewKeccak256()}
}

// Name returns the backend name
func (g *BtcecGenerator) Name() string {
	return BackendBtcec
}

// Generate fills c with a new key pair
func (g *BtcecGenerator) Generate(c *Candidate) error {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	copy(c.PrivateKey[:], key.Serialize())
	pub := key.PubKey().SerializeUncompressed()
	crypto.PubKeyToAddressInto(g.hasher, pub, g.hashBuf[:], c.Address[:])
	return nil
}

// DeriveAddress returns the checksummed address (no 0x) for a private key
// given as 64 hex characters.
func DeriveAddress(privateKeyHex string) (string, error) {
	b, err := hex.DecodeString(privateKeyHex)
	if err != nil || len(b) != 32 {
		return "", ErrInvalidPrivateKey
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return "", ErrInvalidPrivateKey
	}

	pub := secp256k1.PrivKeyFromBytes(b).PubKey().SerializeUncompressed()
	addr := crypto.PubKeyToAddress(pub)
	return strings.TrimPrefix(crypto.AddressBytesToChecksumString(addr[:]), "0x"), nil
}

// Verify checks that kp.Address is the checksummed address of kp.PrivateKey
func Verify(kp types.KeyPair) error {
	if !crypto.IsHexAddress(kp.Address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, kp.Address)
	}
	addr, err := DeriveAddress(kp.PrivateKey)
	if err != nil {
		return err
	}
	if addr != kp.Address {
		return fmt.Errorf("%w: derived %s, have %s", ErrAddressMismatch, addr, kp.Address)
	}
	return nil
}
