package watch

import (
	"hash/fnv"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dpotapov/go-watch/htree"
)

// Fingerprint hashes the text content of n. The text is NFKC normalized and
// stripped of all white space first, so re-indenting or re-wrapping a page
// keeps its fingerprint.
func Fingerprint(n htree.Node) uint64 {
	return fingerprintString(n.RCData())
}

func fingerprintString(s string) uint64 {
	t := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.White_Space)))
	if normalized, _, err := transform.String(t, s); err == nil {
		s = normalized
	}
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// checksum hashes raw content bytes.
func checksum(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
