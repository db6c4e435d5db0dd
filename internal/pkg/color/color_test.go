package color

import (
	"errors"
	"testing"
)

func TestComplement(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Mixed case hex", input: "A234b6", want: "#48b634"},
		{name: "Converted base 36 value", input: "bf0fff", want: "#4fff0f"},
		{name: "Leading hash", input: "#bf0fff", want: "#4fff0f"},
		{name: "Grey stays grey", input: "808080", want: "#808080"},
		{name: "Black", input: "000000", want: "#000000"},
		{name: "Pure red becomes cyan", input: "ff0000", want: "#00ffff"},
		{name: "Too short", input: "fff", wantErr: true},
		{name: "Not hex", input: "zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Complement(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHex) {
					t.Fatalf("expected ErrInvalidHex, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Complement(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestForIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want Pair
	}{
		{name: "Empty id", id: "", want: Default()},
		{name: "Hex tail", id: "A234b6", want: Pair{Fill: "#A234b6", Background: "#48b634"}},
		{name: "Hex tail of a longer id", id: "amzn1.ask.account.A234b6", want: Pair{Fill: "#A234b6", Background: "#48b634"}},
		{name: "Base 36 tail", id: "ZZZZZZ", want: Pair{Fill: "#bf0fff", Background: "#4fff0f"}},
		{name: "Short hex conversion is not padded", id: "1", want: Default()},
		{name: "No digits at all", id: "......", want: Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForIdentifier(tt.id); got != tt.want {
				t.Errorf("ForIdentifier(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestParseIntPrefix(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{input: "zz", want: 1295, wantOK: true},
		{input: "a.b", want: 10, wantOK: true},
		{input: "  10", want: 36, wantOK: true},
		{input: "-1", want: -1, wantOK: true},
		{input: ".abc", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseIntPrefix(tt.input, 36)
		if ok != tt.wantOK {
			t.Fatalf("parseIntPrefix(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
		}
		if ok && got != tt.want {
			t.Errorf("parseIntPrefix(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
