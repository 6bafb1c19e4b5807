// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metadata implements the property-list codec shared by every ZMTP
// security mechanism's post-greeting commands (INITIATE, READY). It is a
// narrow, self-contained stand-in for the generic metadata parser that
// spec.md §1 treats as an out-of-scope collaborator: the PLAIN mechanism
// still needs a concrete codec to produce bit-exact command bodies and to
// detect InvalidMetadata, so it is implemented here rather than assumed
// away.
//
// Wire format: zero or more properties, each
//
//	u8 nameLen, name[nameLen], u32-BE valueLen, value[valueLen]
//
// concatenated with no outer length or count prefix; the enclosing command
// body length bounds the list. Property order is preserved on Encode and
// on Decode's iteration, matching the length-prefixed, read-then-slice
// idiom used throughout this codebase's wire codecs (compare
// go-oryx-lib/amf0's marker-then-length decoding).
package metadata

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed reports a property list that could not be parsed: a
// truncated length prefix, or a name/value length that overruns the
// remaining body.
var ErrMalformed = errors.New("metadata: malformed property list")

// Property is a single name/value pair. A []Property is ordered to keep
// Encode deterministic for wire-exactness tests.
type Property struct {
	Name  string
	Value string
}

// Encode serializes props in order.
func Encode(props []Property) []byte {
	n := 0
	for _, p := range props {
		n += 1 + len(p.Name) + 4 + len(p.Value)
	}
	out := make([]byte, 0, n)
	for _, p := range props {
		out = append(out, byte(len(p.Name)))
		out = append(out, p.Name...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Value)))
		out = append(out, lenBuf[:]...)
		out = append(out, p.Value...)
	}
	return out
}

// Decode parses the entire body as a property list. An empty body decodes
// to a nil, non-error []Property slice.
func Decode(body []byte) ([]Property, error) {
	var props []Property
	i := 0
	for i < len(body) {
		if i+1 > len(body) {
			return nil, ErrMalformed
		}
		nameLen := int(body[i])
		i++
		if i+nameLen > len(body) {
			return nil, ErrMalformed
		}
		name := string(body[i : i+nameLen])
		i += nameLen

		if i+4 > len(body) {
			return nil, ErrMalformed
		}
		valueLen := int(binary.BigEndian.Uint32(body[i : i+4]))
		i += 4
		if valueLen < 0 || i+valueLen > len(body) {
			return nil, ErrMalformed
		}
		value := string(body[i : i+valueLen])
		i += valueLen

		props = append(props, Property{Name: name, Value: value})
	}
	return props, nil
}

// ToMap is a convenience conversion for callers that only care about
// lookup by name; order information is lost.
func ToMap(props []Property) map[string]string {
	m := make(map[string]string, len(props))
	for _, p := range props {
		m[p.Name] = p.Value
	}
	return m
}
