package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

// SRP6 as the build 16042 client speaks it: the 1024-bit group with g=2,
// SHA-256 throughout, big integers encoded little-endian on the wire and in
// hashes, and the server evidence M2 reversed as 4-byte words before sending.

// srpNHex is the 1024-bit group prime (RFC 5054 appendix A, group 1).
const srpNHex = "EEAF0AB9ADB38DD69C33F80AFA8FC5E86072618775FF3C0B9EA2314C" +
	"9C256576D674DF7496EA81D3383B4813D692C6E0E0D5D8E250B98BE4" +
	"8E495C1D6089DAD15DC7D7B46154D6B6CE8EF4AD69B15D4982559B29" +
	"7BCF1885C529F566660E57EC68EDBC3C05726CC02FD4CBF4976EAA9A" +
	"FD5138FE8376435B9FC61D2FC0EB06E3"

var (
	srpN = mustHexInt(srpNHex)
	srpG = big.NewInt(2)
	srpK = computeK() // SRP-6a multiplier k = H(N, g)
)

func mustHexInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("auth: bad srp constant")
	}
	return n
}

func computeK() *big.Int {
	h := sha256.New()
	h.Write(leBytes(srpN, 128))
	h.Write(leBytes(srpG, 128))
	return leInt(h.Sum(nil))
}

// hashLE hashes the little-endian encodings of the given byte slices.
func hashLE(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// ReverseWords reverses b as 4-byte chunks in place and returns it. The
// client applies this to M2 (and only M2); sending it unreversed is the
// classic interop failure.
func ReverseWords(b []byte) []byte {
	for i := 0; i+4 <= len(b); i += 4 {
		b[i], b[i+3] = b[i+3], b[i]
		b[i+1], b[i+2] = b[i+2], b[i+1]
	}
	return b
}

// credentialHash computes P = SHA256(lower(email) ":" password).
func credentialHash(email, password string) []byte {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(email)))
	h.Write([]byte(":"))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// privateKey computes x = H(salt, P).
func privateKey(email, password string, salt []byte) *big.Int {
	return leInt(hashLE(salt, credentialHash(email, password)))
}

// GenerateVerifier computes v = g^x mod N for account provisioning.
// The returned verifier is little-endian, 128 bytes.
func GenerateVerifier(email, password string, salt []byte) []byte {
	x := privateKey(email, password, salt)
	v := new(big.Int).Exp(srpG, x, srpN)
	return leBytes(v, 128)
}

// NewSalt returns a fresh 16-byte random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("srp salt: %w", err)
	}
	return salt, nil
}

// ServerSession holds the server side of one SRP6 exchange. One instance per
// connection attempt; it is discarded after VerifyProof.
type ServerSession struct {
	salt []byte
	v    *big.Int
	b    *big.Int
	pubB *big.Int
}

// NewServerSession picks an ephemeral b and computes B = (k*v + g^b) mod N.
func NewServerSession(salt, verifier []byte) (*ServerSession, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("srp ephemeral: %w", err)
	}
	b := new(big.Int).SetBytes(raw)
	v := leInt(verifier)

	gb := new(big.Int).Exp(srpG, b, srpN)
	kv := new(big.Int).Mul(srpK, v)
	pubB := kv.Add(kv, gb)
	pubB.Mod(pubB, srpN)

	return &ServerSession{salt: salt, v: v, b: b, pubB: pubB}, nil
}

// Salt returns the account salt sent in the challenge.
func (s *ServerSession) Salt() []byte { return s.salt }

// PublicB returns B, little-endian, 128 bytes.
func (s *ServerSession) PublicB() []byte { return leBytes(s.pubB, 128) }

// VerifyProof checks the client's (A, M1). On success it returns the 16-byte
// session key and the reversed server evidence M2; on failure ok is false.
func (s *ServerSession) VerifyProof(aBytes, m1 []byte) (sessionKey []byte, m2 []byte, ok bool) {
	a := leInt(aBytes)
	if a.Sign() == 0 || new(big.Int).Mod(a, srpN).Sign() == 0 {
		return nil, nil, false // A ≡ 0 mod N is an attack, not a typo
	}

	u := leInt(hashLE(leBytes(a, 128), leBytes(s.pubB, 128)))
	// S = (A * v^u)^b mod N
	vu := new(big.Int).Exp(s.v, u, srpN)
	base := vu.Mul(vu, a)
	base.Mod(base, srpN)
	secret := new(big.Int).Exp(base, s.b, srpN)

	key := interleaveKey(secret)
	expected := clientEvidence(leBytes(a, 128), leBytes(s.pubB, 128), s.salt, key)
	if subtle.ConstantTimeCompare(expected, m1) != 1 {
		return nil, nil, false
	}

	m2 = hashLE(leBytes(a, 128), m1, key)
	return key[:16], ReverseWords(m2), true
}

// ClientSession is the client half, used by tests and tooling.
type ClientSession struct {
	email    string
	password string
	a        *big.Int
	pubA     *big.Int
}

// NewClientSession picks an ephemeral a and computes A = g^a mod N.
func NewClientSession(email, password string) (*ClientSession, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("srp ephemeral: %w", err)
	}
	a := new(big.Int).SetBytes(raw)
	return &ClientSession{
		email:    email,
		password: password,
		a:        a,
		pubA:     new(big.Int).Exp(srpG, a, srpN),
	}, nil
}

// PublicA returns A, little-endian, 128 bytes.
func (c *ClientSession) PublicA() []byte { return leBytes(c.pubA, 128) }

// ComputeProof derives the shared key from (salt, B) and returns M1 plus the
// 16-byte session key the client will feed into the world key derivation.
func (c *ClientSession) ComputeProof(salt, bBytes []byte) (m1 []byte, sessionKey []byte) {
	bPub := leInt(bBytes)
	x := privateKey(c.email, c.password, salt)
	u := leInt(hashLE(leBytes(c.pubA, 128), leBytes(bPub, 128)))

	// S = (B - k*g^x)^(a + u*x) mod N
	gx := new(big.Int).Exp(srpG, x, srpN)
	kgx := new(big.Int).Mul(srpK, gx)
	base := new(big.Int).Sub(bPub, kgx)
	base.Mod(base, srpN)
	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, c.a)
	secret := new(big.Int).Exp(base, exp, srpN)

	key := interleaveKey(secret)
	m1 = clientEvidence(leBytes(c.pubA, 128), leBytes(bPub, 128), salt, key)
	return m1, key[:16]
}

// VerifyServer checks the reversed M2 evidence against the client's view.
func (c *ClientSession) VerifyServer(salt, bBytes, m1, m2 []byte) bool {
	bPub := leInt(bBytes)
	x := privateKey(c.email, c.password, salt)
	u := leInt(hashLE(leBytes(c.pubA, 128), leBytes(bPub, 128)))
	gx := new(big.Int).Exp(srpG, x, srpN)
	kgx := new(big.Int).Mul(srpK, gx)
	base := new(big.Int).Sub(bPub, kgx)
	base.Mod(base, srpN)
	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, c.a)
	secret := new(big.Int).Exp(base, exp, srpN)

	key := interleaveKey(secret)
	expected := ReverseWords(hashLE(leBytes(c.pubA, 128), m1, key))
	return subtle.ConstantTimeCompare(expected, m2) == 1
}

// clientEvidence computes M1 = H(H(N) xor H(g), H(email-less I), salt, A, B, K).
// The identity hash is omitted by this client generation; salt carries the
// account binding instead.
func clientEvidence(aLE, bLE, salt, key []byte) []byte {
	hn := hashLE(leBytes(srpN, 128))
	hg := hashLE(leBytes(srpG, 128))
	ngxor := make([]byte, len(hn))
	for i := range hn {
		ngxor[i] = hn[i] ^ hg[i]
	}
	return hashLE(ngxor, salt, aLE, bLE, key)
}

// interleaveKey is the SHA_Interleave variant: split the little-endian bytes
// of S (leading zero bytes stripped from the high end) into even and odd
// streams, hash each, and interleave the two digests into 64 bytes.
func interleaveKey(secret *big.Int) []byte {
	t := leBytes(secret, 128)
	// Strip high-end zeros (the tail of a little-endian encoding).
	end := len(t)
	for end > 0 && t[end-1] == 0 {
		end--
	}
	t = t[:end]
	if len(t)%2 == 1 {
		t = t[1:]
	}

	even := make([]byte, 0, len(t)/2)
	odd := make([]byte, 0, len(t)/2)
	for i := 0; i < len(t); i += 2 {
		even = append(even, t[i])
		odd = append(odd, t[i+1])
	}
	ge := sha256.Sum256(even)
	ho := sha256.Sum256(odd)

	key := make([]byte, 64)
	for i := 0; i < 32; i++ {
		key[i*2] = ge[i]
		key[i*2+1] = ho[i]
	}
	return key
}
