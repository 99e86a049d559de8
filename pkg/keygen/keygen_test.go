package keygen

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/screa/eth-vanity-miner/internal/crypto"
	"github.com/screa/eth-vanity-miner/pkg/types"
)

var privateKeyRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		name    string
		wantErr error
	}{
		{"", BackendGeth, nil},
		{BackendGeth, BackendGeth, nil},
		{BackendBtcec, BackendBtcec, nil},
		{"cuda", "", ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			gen, err := New(tt.backend)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.name, gen.Name())
		})
	}
}

func TestBackendsProduceMatchingAddresses(t *testing.T) {
	for _, backend := range Backends() {
		t.Run(backend, func(t *testing.T) {
			gen, err := New(backend)
			require.NoError(t, err)

			var c Candidate
			for i := 0; i < 16; i++ {
				require.NoError(t, gen.Generate(&c))

				key, err := gethcrypto.ToECDSA(c.PrivateKey[:])
				require.NoError(t, err)
				require.Equal(t, gethcrypto.PubkeyToAddress(key.PublicKey).Bytes(), c.Address[:])

				kp := c.KeyPair(crypto.Checksum(hex.EncodeToString(c.Address[:])))
				require.Regexp(t, privateKeyRe, kp.PrivateKey)
				require.Equal(t, common.BytesToAddress(c.Address[:]).Hex(), kp.AddressHex())
				require.NoError(t, Verify(kp))
			}
		})
	}
}

func TestGethGeneratorDeterministicReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, 32)
	gen := NewGethGenerator(bytes.NewReader(seed))

	var c Candidate
	require.NoError(t, gen.Generate(&c))
	require.Equal(t, seed, c.PrivateKey[:])

	// reader exhausted
	err := gen.Generate(&c)
	require.ErrorIs(t, err, io.EOF)
}

func TestGethGeneratorRejectsOutOfRange(t *testing.T) {
	valid := bytes.Repeat([]byte{0x02}, 32)
	tests := []struct {
		name     string
		rejected []byte
	}{
		{"zero scalar", make([]byte, 32)},
		{"all ones above curve order", bytes.Repeat([]byte{0xff}, 32)},
		// secp256k1 N itself
		{"curve order", mustDecodeHex(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := append(append([]byte{}, tt.rejected...), valid...)
			gen := NewGethGenerator(bytes.NewReader(src))

			var c Candidate
			require.NoError(t, gen.Generate(&c))
			require.Equal(t, valid, c.PrivateKey[:])

			// both draws were consumed
			require.ErrorIs(t, gen.Generate(&c), io.EOF)
		})
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func TestGethGeneratorEntropyFailure(t *testing.T) {
	gen := NewGethGenerator(failingReader{})
	var c Candidate
	require.Error(t, gen.Generate(&c))
}

func TestDeriveAddressKnownKey(t *testing.T) {
	// private key 1 maps to the generator point
	priv := "0000000000000000000000000000000000000000000000000000000000000001"
	addr, err := DeriveAddress(priv)
	require.NoError(t, err)
	require.Equal(t, "7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr)
}

func TestVerify(t *testing.T) {
	good := types.KeyPair{
		PrivateKey: "0000000000000000000000000000000000000000000000000000000000000001",
		Address:    "7E5F4552091A69125d5DfCb7b8C2659029395Bdf",
	}
	require.NoError(t, Verify(good))

	tests := []struct {
		name    string
		kp      types.KeyPair
		wantErr error
	}{
		{
			name:    "wrong casing",
			kp:      types.KeyPair{PrivateKey: good.PrivateKey, Address: "7e5f4552091a69125d5dfcb7b8c2659029395bdf"},
			wantErr: ErrAddressMismatch,
		},
		{
			name:    "truncated address",
			kp:      types.KeyPair{PrivateKey: good.PrivateKey, Address: good.Address[:39]},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "non-hex address",
			kp:      types.KeyPair{PrivateKey: good.PrivateKey, Address: "7E5F4552091A69125d5DfCb7b8C2659029395Bdg"},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "zero key",
			kp:      types.KeyPair{PrivateKey: "0000000000000000000000000000000000000000000000000000000000000000", Address: good.Address},
			wantErr: ErrInvalidPrivateKey,
		},
		{
			name:    "key above curve order",
			kp:      types.KeyPair{PrivateKey: "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", Address: good.Address},
			wantErr: ErrInvalidPrivateKey,
		},
		{
			name:    "short key",
			kp:      types.KeyPair{PrivateKey: "01", Address: good.Address},
			wantErr: ErrInvalidPrivateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, Verify(tt.kp), tt.wantErr)
		})
	}
}
