package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain integer", input: "3000", want: 300000},
		{name: "two decimals dot", input: "12.34", want: 1234},
		{name: "two decimals comma", input: "12,34", want: 1234},
		{name: "single decimal", input: "12.3", want: 1230},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds up", input: "12.345", want: 1235},
		{name: "leading dot", input: ".50", want: 50},
		{name: "whitespace trimmed", input: " 42.00 ", want: 4200},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero decimal", input: "0.00", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "explicit plus", input: "+5", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "overflow", input: "92233720368547758079", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.want {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.want)
			}
		})
	}
}

func TestMoneySub(t *testing.T) {
	t.Run("normal subtract", func(t *testing.T) {
		got, err := FromCents(500).Sub(FromCents(200))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Cents != 300 {
			t.Errorf("Sub = %d, want 300", got.Cents)
		}
	})

	t.Run("exact subtract to zero", func(t *testing.T) {
		got, err := FromCents(500).Sub(FromCents(500))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsZero() {
			t.Errorf("Sub = %d, want 0", got.Cents)
		}
	})

	t.Run("add near the top of the range", func(t *testing.T) {
		got := FromCents(4_500_000_000_000_000_000).Add(FromCents(4_500_000_000_000_000_000))
		if got.Cents != 9_000_000_000_000_000_000 {
			t.Errorf("Add = %d, want 9000000000000000000", got.Cents)
		}
	})

	t.Run("underflow is rejected, not clamped", func(t *testing.T) {
		_, err := FromCents(500).Sub(FromCents(501))
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("Sub error = %v, want ErrInsufficientFunds", err)
		}
	})
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 150000, want: "1500.00"},
		{cents: 5000, want: "50.00"},
		{cents: 1, want: "0.01"},
		{cents: 0, want: "0.00"},
		{cents: 1234, want: "12.34"},
	}
	for _, tt := range tests {
		if got := FromCents(tt.cents).String(); got != tt.want {
			t.Errorf("FromCents(%d).String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	d := FromCents(1234).Decimal()
	if d.String() != "12.34" {
		t.Errorf("Decimal() = %s, want 12.34", d)
	}
}
