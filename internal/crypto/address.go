package crypto

import (
	"encoding/hex"
	"errors"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// AddressLen is the size of a raw Ethereum address in bytes
	AddressLen = 20

	// AddressHexLen is the number of hex characters in an address without 0x
	AddressHexLen = 2 * AddressLen

	// Uncompressed secp256k1 public key: 0x04 (1) + X (32) + Y (32) = 65
	UncompressedPubKeyLen = 65
)

// NewKeccak256 returns a legacy Keccak-256 hasher that callers can reuse
// across iterations to avoid allocating a new state per attempt.
func NewKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// PubKeyToAddressInto hashes the 64 coordinate bytes of an uncompressed public
// key and writes the 20-byte address into addrBuf.
// pub must be UncompressedPubKeyLen bytes, hashBuf at least 32 bytes.
func PubKeyToAddressInto(hasher hash.Hash, pub, hashBuf, addrBuf []byte) {
	hasher.Reset()
	hasher.Write(pub[1:])
	sum := hasher.Sum(hashBuf[:0])
	copy(addrBuf, sum[12:32])
}

// PubKeyToAddress derives the 20-byte account address from an uncompressed
// public key.
func PubKeyToAddress(pub []byte) [AddressLen]byte {
	if len(pub) != UncompressedPubKeyLen {
		panic(errors.New("public key must be 65 bytes uncompressed"))
	}
	var (
		addr    [AddressLen]byte
		hashBuf [32]byte
	)
	PubKeyToAddressInto(NewKeccak256(), pub, hashBuf[:], addr[:])
	return addr
}

// AddressBytesToChecksumString converts 20-byte address to EIP-55 checksummed string.
// Only call when you need the string (e.g. for result output).
func AddressBytesToChecksumString(addr20 []byte) string {
	if len(addr20) != AddressLen {
		panic(errors.New("address must be 20 bytes"))
	}
	return "0x" + Checksum(hex.EncodeToString(addr20))
}

// Checksum applies EIP-55 casing to a hex address given without 0x prefix.
// The input is lowercased first, so Checksum(strings.ToLower(Checksum(a)))
// always equals Checksum(a). Characters beyond the 64 nibbles of the digest
// and non-letter characters are copied through unchanged.
func Checksum(rawAddressHex string) string {
	lower := strings.ToLower(rawAddressHex)
	digest := keccak256Bytes([]byte(lower))

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' || i >= 2*len(digest) {
			continue
		}
		// each nibble of the hash decides case of corresponding hex char
		if nibble(digest, i) > 7 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}

// ChecksumInto is the allocation-light variant of Checksum for the hot path.
// lowerHex must hold the lowercase hex address and is rewritten in place.
func ChecksumInto(hasher hash.Hash, lowerHex, hashBuf []byte) {
	hasher.Reset()
	hasher.Write(lowerHex)
	digest := hasher.Sum(hashBuf[:0])
	for i, c := range lowerHex {
		if c >= 'a' && c <= 'f' && nibble(digest, i) > 7 {
			lowerHex[i] = c - ('a' - 'A')
		}
	}
}

// IsHexAddress reports whether s is a 40-character hex address, with or
// without 0x prefix. Checksum behaviour is only meaningful for such input.
func IsHexAddress(s string) bool {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s) != AddressHexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ---- helpers ----

func nibble(digest []byte, i int) byte {
	return (digest[i/2] >> uint(4*(1-i%2))) & 0xF
}

func keccak256Bytes(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(b)
	return h.Sum(nil)
}

// HexEncodeLower encodes src into dst as lowercase hexadecimal.
// dst must be at least len(src)*2 bytes.
func HexEncodeLower(dst, src []byte) {
	const hextable = "0123456789abcdef"
	for i, v := range src {
		dst[i*2] = hextable[v>>4]
		dst[i*2+1] = hextable[v&0x0f]
	}
}
