// Package idgen produces collision-resistant, human-transcribable
// identifiers and credential secrets. Uniqueness is not checked here; the
// ledger's unique indexes reject colliding writes and callers retry.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// idAlphabet excludes visually ambiguous characters (0/O, 1/I) so printed
// codes survive human transcription.
const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// secretAlphabet is the lowercase variant used for credential passphrases
// (no l, o, 0, 1).
const secretAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// New returns an identifier of the form PREFIX-XXXX-XXXX-XXXX-XXXX drawn
// from the reduced 32-symbol alphabet.
func New(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for g := 0; g < 4; g++ {
		b.WriteByte('-')
		for i := 0; i < 4; i++ {
			b.WriteByte(idAlphabet[randIndex(len(idAlphabet))])
		}
	}
	return b.String()
}

// Secret returns a lowercase alphanumeric passphrase of length n.
func Secret(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(secretAlphabet[randIndex(len(secretAlphabet))])
	}
	return b.String()
}

// LoginID returns a credential login id: prefix plus n uppercase secret
// characters (MFG-XXXX, LIC-XXXXXX).
func LoginID(prefix string, n int) string {
	return prefix + "-" + strings.ToUpper(Secret(n))
}

// BatchID returns a short production batch label.
func BatchID() string {
	return fmt.Sprintf("BATCH-%d", randIndex(10000))
}

func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failure means the platform RNG is broken; there is no
		// meaningful recovery for an id generator.
		panic(fmt.Sprintf("idgen: rand: %v", err))
	}
	return int(v.Int64())
}
