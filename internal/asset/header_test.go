package asset

import (
	"errors"
	"testing"

	"modelgallery/internal/asset/assettest"
)

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(assettest.MinimalGLB()[:HeaderSize])
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Version != 2 || int(h.Length) != len(assettest.MinimalGLB()) {
		t.Fatalf("unexpected header %+v", h)
	}
}

func TestParseHeader_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrShortHeader},
		{"three bytes", []byte("glT"), ErrShortHeader},
		{"html", []byte("<!doctype html>"), ErrBadMagic},
		{"version one", []byte{0x67, 0x6C, 0x54, 0x46, 1, 0, 0, 0, 20, 0, 0, 0}, ErrBadVersion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseHeader(tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseHeader_MagicOnlyPrefix(t *testing.T) {
	if _, err := ParseHeader([]byte("glTF")); err != nil {
		t.Fatalf("four-byte prefix with valid magic should pass: %v", err)
	}
}
