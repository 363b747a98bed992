// Package obfuscate provides a reversible transform between internal sequential
// row ids and the opaque ids exposed externally. This is obfuscation to avoid
// leaking insertion order, not access control.
package obfuscate

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

const rounds = 2

// Codec permutes 32-bit ids with a fixed-round Feistel network keyed by a
// per-entity-type prefix. Encode is its own inverse for a given prefix.
type Codec struct {
	prefix string
}

// New returns a Codec for the given entity prefix, e.g. "S" for shipments.
func New(prefix string) Codec {
	return Codec{prefix: prefix}
}

// Prefix returns the entity prefix this codec renders in public ids.
func (c Codec) Prefix() string {
	return c.prefix
}

// Encode permutes id over the full 32-bit domain. Encode(Encode(id)) == id.
func (c Codec) Encode(id uint32) uint32 {
	left := (id >> 16) & 0xFFFF
	right := id & 0xFFFF

	for range rounds {
		next := left ^ c.round(right)
		left, right = right, next
	}

	return (right << 16) | left
}

// round is a deterministic pseudorandom function over one 16-bit half.
func (c Codec) round(half uint32) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(half), 10) + c.prefix))
	return h.Sum32() & 0xFFFF
}

// Format renders an internal id as its public form: prefix + decimal(Encode(id)).
func (c Codec) Format(id int64) string {
	return c.prefix + strconv.FormatUint(uint64(c.Encode(uint32(id))), 10)
}

// Parse decodes a public id back to the internal id it encodes.
func (c Codec) Parse(public string) (int64, error) {
	s, ok := strings.CutPrefix(public, c.prefix)
	if !ok {
		return 0, fmt.Errorf("public id %q does not carry prefix %q", public, c.prefix)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse public id %q: %w", public, err)
	}
	return int64(c.Encode(uint32(n))), nil
}
