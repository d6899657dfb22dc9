package auth

import (
	"math/big"
)

// Key-schedule constants ported from the build 16042 client. The same
// multiplier/increment pair drives the auth key, the world key, and the
// cipher's 1024-bit table expansion; the numeric literals are part of the
// bit-exact wire contract and must not be changed independently.
const (
	// KeyMultiplier is the big-integer multiplier of the key schedule. The
	// cipher also uses its low bits for sub-key stepping.
	KeyMultiplier uint64 = 0x9D40C72D
	// KeyIncrement is the additive constant applied after each multiply.
	KeyIncrement uint64 = 0x2F0A1B05
	// authSeed / worldSeed are the initial mixing constants of the two
	// derivations. They differ, so an auth key can never equal a world key
	// for related inputs.
	authSeed  uint64 = 0x158F1039
	worldSeed uint64 = 0x6C34D10B
)

const keyRounds = 8

// mixRounds runs the shared multiply-add schedule over n.
func mixRounds(n *big.Int) *big.Int {
	mult := new(big.Int).SetUint64(KeyMultiplier)
	inc := new(big.Int).SetUint64(KeyIncrement)
	for i := 0; i < keyRounds; i++ {
		n.Mul(n, mult)
		n.Add(n, inc)
	}
	return n
}

// leBytes returns exactly size little-endian bytes of n (low bytes first,
// zero padded). Big integers on this wire are always little-endian.
func leBytes(n *big.Int, size int) []byte {
	raw := n.Bytes() // big-endian
	out := make([]byte, size)
	for i := 0; i < len(raw) && i < size; i++ {
		out[i] = raw[len(raw)-1-i]
	}
	return out
}

// leInt interprets b as a little-endian unsigned big integer.
func leInt(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}

// DeriveAuthKey produces the 16-byte auth-realm cipher secret from the
// client build number. Reproducible: same build, same key.
func DeriveAuthKey(build uint32) [16]byte {
	n := new(big.Int).SetUint64(uint64(build) ^ authSeed)
	mixRounds(n)
	var key [16]byte
	copy(key[:], leBytes(n, 16))
	return key
}

// DeriveWorldKey produces the 16-byte world-realm cipher secret from the
// SRP6 session key bytes.
func DeriveWorldKey(sessionKey []byte) [16]byte {
	n := leInt(sessionKey)
	n.Xor(n, new(big.Int).SetUint64(worldSeed))
	mixRounds(n)
	var key [16]byte
	copy(key[:], leBytes(n, 16))
	return key
}

// ExpandKeyTable stretches a 16-byte secret into the cipher's 1024-bit
// (128-byte) key table using the shared schedule.
func ExpandKeyTable(secret [16]byte) [128]byte {
	n := leInt(secret[:])
	n.Xor(n, new(big.Int).SetUint64(authSeed^worldSeed))
	mult := new(big.Int).SetUint64(KeyMultiplier)
	inc := new(big.Int).SetUint64(KeyIncrement)
	// 40 rounds always clears 1024 bits of state regardless of the secret.
	for i := 0; i < 40; i++ {
		n.Mul(n, mult)
		n.Add(n, inc)
	}
	var table [128]byte
	copy(table[:], leBytes(n, 128))
	return table
}
