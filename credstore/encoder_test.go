package credstore

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleBundle() *Bundle {
	return &Bundle{
		Token: "header.payload.signature",
		User: &UserRecord{
			ID:         "u1",
			Identifier: "alice",
			Name:       "Alice",
			Verified:   true,
			Sector:     "inventory",
			Privileges: []string{"orders.read", "orders.write"},
		},
		LastValidated: 1748779200,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sampleBundle()
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in = %+v\nout = %+v", in, out)
	}
}

func TestEncodeDecodeNoUser(t *testing.T) {
	in := &Bundle{Token: "tok", LastValidated: 42}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User != nil || out.Token != "tok" || out.LastValidated != 42 {
		t.Fatalf("out = %+v", out)
	}
}

func TestEncodeRejectsOversized(t *testing.T) {
	if _, err := Encode(&Bundle{Token: strings.Repeat("a", maxTokenLen+1)}); err == nil {
		t.Fatal("expected token length error")
	}
	u := &UserRecord{Name: strings.Repeat("n", maxFieldLen+1)}
	if _, err := Encode(&Bundle{Token: "t", User: u}); err == nil {
		t.Fatal("expected field length error")
	}
	if _, err := Encode(nil); err == nil {
		t.Fatal("expected nil bundle error")
	}
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	good, err := Encode(sampleBundle())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown version", append([]byte{99}, good[1:]...)},
		{"truncated header", good[:2]},
		{"truncated token", good[:5]},
		{"truncated user", good[:len(good)-12]},
		{"bad presence flag", func() []byte {
			d := append([]byte(nil), good...)
			d[3+len(sampleBundle().Token)] = 7
			return d
		}()},
		{"trailing bytes", append(append([]byte(nil), good...), 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.data); !errors.Is(err, ErrCorruptBundle) {
				t.Fatalf("err = %v, want ErrCorruptBundle", err)
			}
		})
	}
}
