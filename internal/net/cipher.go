package net

import "github.com/wsgo/server/internal/auth"

// Cipher is the build 16042 stream cipher. A 16-byte session secret is
// expanded into a 1024-bit key table; each direction keeps its own 8-byte
// rolling state over that shared table. Both directions feed the state from
// the *ciphertext* byte (encrypt from its output, decrypt from its input),
// which is what keeps two independent endpoints in sync. Feeding decrypt
// from its output instead is the classic way to break round-tripping.
type Cipher struct {
	key [128]byte

	encState [8]byte
	decState [8]byte
	encCtr   uint32
	decCtr   uint32
	encSub   int
	decSub   int
}

// NewCipher expands the secret and seeds both direction states from the
// head of the key table.
func NewCipher(secret [16]byte) *Cipher {
	c := &Cipher{key: auth.ExpandKeyTable(secret)}
	copy(c.encState[:], c.key[:8])
	copy(c.decState[:], c.key[:8])
	return c
}

// subKeyOffset derives the table offset for the next 8-byte run. The low
// bits of the shared key multiplier drive the walk.
func subKeyOffset(ctr uint32) int {
	return int((ctr*uint32(auth.KeyMultiplier))&0x0F) * 8
}

// Encrypt encrypts data in place and returns it.
func (c *Cipher) Encrypt(data []byte) []byte {
	for i, b := range data {
		if i&7 == 0 {
			c.encSub = subKeyOffset(c.encCtr)
			c.encCtr++
		}
		out := c.encState[i&7] ^ b ^ c.key[c.encSub+(i&7)]
		data[i] = out
		c.encState[i&7] = out
	}
	return data
}

// Decrypt decrypts data in place and returns it. Note the state update uses
// the input (ciphertext) byte, not the output.
func (c *Cipher) Decrypt(data []byte) []byte {
	for i, b := range data {
		if i&7 == 0 {
			c.decSub = subKeyOffset(c.decCtr)
			c.decCtr++
		}
		out := c.decState[i&7] ^ b ^ c.key[c.decSub+(i&7)]
		data[i] = out
		c.decState[i&7] = b
	}
	return data
}
