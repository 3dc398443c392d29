package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestFixedConversion(t *testing.T) {
	tests := []struct {
		name     string
		float    float64
		expected float64
	}{
		{"zero", 0.0, 0.0},
		{"positive integer", 42.0, 42.0},
		{"negative integer", -42.0, -42.0},
		{"positive fraction", 3.5, 3.5},
		{"negative fraction", -3.5, -3.5},
		{"small positive", 0.125, 0.125},
		{"small negative", -0.125, -0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixed := FixedFromFloat(tt.float)
			got := fixed.Float()

			epsilon := 0.004 // 24.8 fixed has ~0.004 precision
			if diff := got - tt.expected; diff < -epsilon || diff > epsilon {
				t.Errorf("FixedFromFloat(%v).Float() = %v, want %v", tt.float, got, tt.expected)
			}
		})
	}
}

func TestFixedFromInt(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 42, 42},
		{"negative", -42, -42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedFromInt(tt.input).Int()
			if got != tt.expected {
				t.Errorf("FixedFromInt(%d).Int() = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInt32Roundtrip(t *testing.T) {
	values := []int32{0, 1, -1, 42, -42, 1 << 30, -(1 << 30)}
	for _, v := range values {
		enc := NewEncoder(4)
		enc.PutInt32(v)
		dec := NewDecoder(enc.Bytes(), nil)
		got, err := dec.Int32()
		if err != nil {
			t.Fatalf("Int32() error = %v", err)
		}
		if got != v {
			t.Errorf("roundtrip int32 = %d, want %d", got, v)
		}
	}
}

func TestStringRoundtrip(t *testing.T) {
	tests := []string{"", "hello", "wl_shm", "non-ascii: héllo wörld", "x"}
	for _, s := range tests {
		enc := NewEncoder(64)
		enc.PutString(s)
		dec := NewDecoder(enc.Bytes(), nil)
		got, wasNull, err := dec.String()
		if err != nil {
			t.Fatalf("String(%q) error = %v", s, err)
		}
		if wasNull {
			t.Fatalf("String(%q) reported null", s)
		}
		if got != s {
			t.Errorf("roundtrip string = %q, want %q", got, s)
		}
		if !dec.AtEnd() {
			t.Errorf("decoder not at end after string %q", s)
		}
	}
}

func TestNullStringRoundtrip(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutNullString()
	dec := NewDecoder(enc.Bytes(), nil)
	got, wasNull, err := dec.String()
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}
	if !wasNull {
		t.Fatalf("expected null string, got %q", got)
	}
}

func TestStringPadding(t *testing.T) {
	enc := NewEncoder(16)
	enc.PutString("ab") // length 3 (incl NUL), padded to 4
	if len(enc.Bytes())%WordSize != 0 {
		t.Fatalf("encoded string not word-aligned: %d bytes", len(enc.Bytes()))
	}
}

func TestStringRejectsInteriorNUL(t *testing.T) {
	buf := make([]byte, 0, 16)
	buf = append(buf, 5, 0, 0, 0) // length = 5 (4 chars + NUL)
	buf = append(buf, 'a', 0, 'b', 'c', 0, 0, 0, 0)
	dec := NewDecoder(buf, nil)
	_, _, err := dec.String()
	if !errors.Is(err, ErrStringInteriorNUL) {
		t.Fatalf("expected ErrStringInteriorNUL, got %v", err)
	}
}

func TestStringRejectsMissingTerminator(t *testing.T) {
	buf := make([]byte, 0, 16)
	buf = append(buf, 4, 0, 0, 0)
	buf = append(buf, 'a', 'b', 'c', 'd')
	dec := NewDecoder(buf, nil)
	_, _, err := dec.String()
	if !errors.Is(err, ErrStringNotTerminated) {
		t.Fatalf("expected ErrStringNotTerminated, got %v", err)
	}
}

func TestStringArgRejectsNullWhenNotNullable(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutNullString()
	dec := NewDecoder(enc.Bytes(), nil)
	if _, err := dec.StringArg(false); !errors.Is(err, ErrNullString) {
		t.Fatalf("StringArg(false) error = %v, want ErrNullString", err)
	}
}

func TestStringArgAllowsNullWhenNullable(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutNullString()
	dec := NewDecoder(enc.Bytes(), nil)
	s, err := dec.StringArg(true)
	if err != nil {
		t.Fatalf("StringArg(true) error = %v", err)
	}
	if s != "" {
		t.Fatalf("StringArg(true) = %q, want empty", s)
	}
}

func TestArrayRoundtrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	enc := NewEncoder(16)
	enc.PutArray(data)
	dec := NewDecoder(enc.Bytes(), nil)
	got, err := dec.Array()
	if err != nil {
		t.Fatalf("Array() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("roundtrip array = %v, want %v", got, data)
	}
}

func TestObjectNullRejectedWhenNotNullable(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutObject(0)
	dec := NewDecoder(enc.Bytes(), nil)
	if _, err := dec.Object(false); !errors.Is(err, ErrNullObject) {
		t.Fatalf("expected ErrNullObject, got %v", err)
	}
}

func TestObjectNullAllowedWhenNullable(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutObject(0)
	dec := NewDecoder(enc.Bytes(), nil)
	id, err := dec.Object(true)
	if err != nil {
		t.Fatalf("Object(nullable) error = %v", err)
	}
	if id != 0 {
		t.Errorf("expected null id, got %d", id)
	}
}

func TestNewIDRejectsZero(t *testing.T) {
	enc := NewEncoder(4)
	enc.PutNewID(0)
	dec := NewDecoder(enc.Bytes(), nil)
	if _, err := dec.NewID(); !errors.Is(err, ErrNullNewID) {
		t.Fatalf("expected ErrNullNewID, got %v", err)
	}
}

func TestFDRoundtrip(t *testing.T) {
	dec := NewDecoder(nil, []int{3, 7})
	fd, err := dec.FD()
	if err != nil || fd != 3 {
		t.Fatalf("FD() = %d, %v, want 3, nil", fd, err)
	}
	fd, err = dec.FD()
	if err != nil || fd != 7 {
		t.Fatalf("FD() = %d, %v, want 7, nil", fd, err)
	}
	if _, err := dec.FD(); !errors.Is(err, ErrNoFD) {
		t.Fatalf("expected ErrNoFD, got %v", err)
	}
}

func TestHeaderRoundtrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeaderInto(buf, 42, 3, 12)
	target, opcode, size, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if target != 42 || opcode != 3 || size != 12 {
		t.Errorf("DecodeHeader() = (%d, %d, %d), want (42, 3, 12)", target, opcode, size)
	}
}

func TestHeaderRejectsUnaligned(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeaderInto(buf, 1, 0, 9) // not word-aligned
	binaryFix(buf, 9)
	_, _, _, err := DecodeHeader(buf)
	if !errors.Is(err, ErrUnaligned) {
		t.Fatalf("expected ErrUnaligned, got %v", err)
	}
}

func TestHeaderRejectsShort(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeaderInto(buf, 1, 0, 4)
	_, _, _, err := DecodeHeader(buf)
	if !errors.Is(err, ErrShortMessage) {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
}

// binaryFix re-pokes a deliberately unaligned length into an
// already-encoded header, since EncodeHeaderInto itself has no opinion on
// alignment (callers are expected to compute a valid size).
func binaryFix(buf []byte, size int) {
	EncodeHeaderInto(buf, ObjectID(buf[0]), 0, size)
}
