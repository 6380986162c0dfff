package id

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestNewReceiptID_Format(t *testing.T) {
	got, err := NewReceiptID()
	if err != nil {
		t.Fatalf("NewReceiptID: %v", err)
	}
	if !IsReceiptID(got) {
		t.Fatalf("not a receipt id: %q", got)
	}
}

func TestNewReceiptID_Uniqueness(t *testing.T) {
	const n = 200
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		r, err := NewReceiptID()
		if err != nil {
			t.Fatalf("NewReceiptID: %v", err)
		}
		if _, ok := seen[r]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, r)
		}
		seen[r] = struct{}{}
	}
}

func TestNewReceiptID_DeterministicSource(t *testing.T) {
	prev := Source
	t.Cleanup(func() { Source = prev })

	Source = bytes.NewReader(bytes.Repeat([]byte{0xab}, 16))
	got, err := NewReceiptID()
	if err != nil {
		t.Fatalf("NewReceiptID: %v", err)
	}
	if want := "abababababababababababababababab"; got != want {
		t.Fatalf("id = %q, want %q", got, want)
	}
}

func TestNewReceiptID_ShortSource(t *testing.T) {
	prev := Source
	t.Cleanup(func() { Source = prev })

	Source = bytes.NewReader([]byte{1, 2, 3})
	_, err := NewReceiptID()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestIsReceiptID(t *testing.T) {
	cases := map[string]bool{
		"0123456789abcdef0123456789abcdef":  true,
		"0123456789ABCDEF0123456789abcdef":  false,
		"0123456789abcdef0123456789abcde":   false,
		"0123456789abcdef0123456789abcdef0": false,
		"0123456789abcdef-123456789abcdef":  false,
		"": false,
	}
	for in, want := range cases {
		if got := IsReceiptID(in); got != want {
			t.Errorf("IsReceiptID(%q) = %v, want %v", in, got, want)
		}
	}
}
