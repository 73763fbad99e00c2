package credstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const bundleFormatVersionCurrent = 1

// ErrCorruptBundle is returned when a stored blob fails to decode. Callers
// treat it like absence after clearing the record.
var ErrCorruptBundle = errors.New("corrupt credential bundle")

const (
	maxTokenLen  = 64 * 1024
	maxFieldLen  = 255
	maxPrivCount = 255
)

func writeString8(buf *bytes.Buffer, s string) error {
	if len(s) > maxFieldLen {
		return errors.New("field too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readString8(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, int(n))
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode serializes a bundle into the current binary format: version byte,
// uint16-length token, user presence flag and fields, int64 timestamp. All
// integers are big-endian.
func Encode(b *Bundle) ([]byte, error) {
	if b == nil {
		return nil, errors.New("nil bundle")
	}
	if len(b.Token) > maxTokenLen {
		return nil, errors.New("token too long")
	}

	var buf bytes.Buffer
	buf.WriteByte(bundleFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(b.Token))); err != nil {
		return nil, err
	}
	buf.WriteString(b.Token)

	if b.User == nil {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		u := b.User
		for _, s := range []string{u.ID, u.Identifier, u.Name, u.Sector} {
			if err := writeString8(&buf, s); err != nil {
				return nil, err
			}
		}
		if u.Verified {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		if len(u.Privileges) > maxPrivCount {
			return nil, errors.New("too many privileges")
		}
		buf.WriteByte(byte(len(u.Privileges)))
		for _, p := range u.Privileges {
			if err := writeString8(&buf, p); err != nil {
				return nil, err
			}
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, b.LastValidated); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a stored blob. Unknown versions and truncated input return
// [ErrCorruptBundle]; Decode never panics on hostile input.
func Decode(data []byte) (*Bundle, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return nil, ErrCorruptBundle
	}
	if version != bundleFormatVersionCurrent {
		return nil, ErrCorruptBundle
	}

	var tokenLen uint16
	if err := binary.Read(r, binary.BigEndian, &tokenLen); err != nil {
		return nil, ErrCorruptBundle
	}
	tok := make([]byte, int(tokenLen))
	if _, err := io.ReadFull(r, tok); err != nil {
		return nil, ErrCorruptBundle
	}

	b := &Bundle{Token: string(tok)}

	present, err := r.ReadByte()
	if err != nil {
		return nil, ErrCorruptBundle
	}
	switch present {
	case 0:
	case 1:
		u := &UserRecord{}
		fields := []*string{&u.ID, &u.Identifier, &u.Name, &u.Sector}
		for _, f := range fields {
			s, err := readString8(r)
			if err != nil {
				return nil, ErrCorruptBundle
			}
			*f = s
		}
		verified, err := r.ReadByte()
		if err != nil {
			return nil, ErrCorruptBundle
		}
		u.Verified = verified == 1
		count, err := r.ReadByte()
		if err != nil {
			return nil, ErrCorruptBundle
		}
		for i := 0; i < int(count); i++ {
			p, err := readString8(r)
			if err != nil {
				return nil, ErrCorruptBundle
			}
			u.Privileges = append(u.Privileges, p)
		}
		b.User = u
	default:
		return nil, ErrCorruptBundle
	}

	if err := binary.Read(r, binary.BigEndian, &b.LastValidated); err != nil {
		return nil, ErrCorruptBundle
	}
	if r.Len() != 0 {
		return nil, ErrCorruptBundle
	}

	return b, nil
}
