// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metadata_test

import (
	"bytes"
	"testing"

	"code.hybscloud.com/zmtp/internal/metadata"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	props := []metadata.Property{
		{Name: "Socket-Type", Value: "DEALER"},
		{Name: "Identity", Value: ""},
	}
	wire := metadata.Encode(props)

	got, err := metadata.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(props) {
		t.Fatalf("len(got)=%d want=%d", len(got), len(props))
	}
	for i := range props {
		if got[i] != props[i] {
			t.Fatalf("prop[%d]=%+v want=%+v", i, got[i], props[i])
		}
	}
}

func TestEncode_EmptyList(t *testing.T) {
	wire := metadata.Encode(nil)
	if len(wire) != 0 {
		t.Fatalf("len(wire)=%d want 0", len(wire))
	}
	got, err := metadata.Decode(wire)
	if err != nil || got != nil {
		t.Fatalf("Decode(empty)=%v,%v want nil,nil", got, err)
	}
}

func TestDecode_TruncatedNameLen(t *testing.T) {
	// name length says 5 bytes follow but only 2 are present.
	wire := []byte{5, 'a', 'b'}
	if _, err := metadata.Decode(wire); err != metadata.ErrMalformed {
		t.Fatalf("err=%v want ErrMalformed", err)
	}
}

func TestDecode_TruncatedValueLen(t *testing.T) {
	wire := []byte{1, 'a', 0, 0, 0} // valueLen prefix needs 4 bytes, only 3 given
	if _, err := metadata.Decode(wire); err != metadata.ErrMalformed {
		t.Fatalf("err=%v want ErrMalformed", err)
	}
}

func TestDecode_ValueLenOverrunsBody(t *testing.T) {
	var wire []byte
	wire = append(wire, 1, 'a')
	wire = append(wire, 0, 0, 0, 10) // claims 10 bytes of value
	wire = append(wire, 'x')         // only 1 provided
	if _, err := metadata.Decode(wire); err != metadata.ErrMalformed {
		t.Fatalf("err=%v want ErrMalformed", err)
	}
}

func TestEncode_PreservesOrder(t *testing.T) {
	props := []metadata.Property{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	}
	wire := metadata.Encode(props)
	want := append([]byte{1, 'b', 0, 0, 0, 1, '2'}, []byte{1, 'a', 0, 0, 0, 1, '1'}...)
	if !bytes.Equal(wire, want) {
		t.Fatalf("wire=%x want=%x", wire, want)
	}
}
