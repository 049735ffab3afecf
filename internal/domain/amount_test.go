package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cake2ct/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantMag     string
		wantOutflow bool
		expectError bool
	}{
		{name: "positive", raw: "1.5", wantMag: "1.5"},
		{name: "negative is outflow", raw: "-0.00000001", wantMag: "0.00000001", wantOutflow: true},
		{name: "whitespace trimmed", raw: " 10 ", wantMag: "10"},
		{name: "zero", raw: "0", wantMag: "0"},
		{name: "garbage", raw: "abc", expectError: true},
		{name: "empty", raw: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := domain.ParseAmount(tt.raw)

			if tt.expectError {
				if err != domain.ErrMalformedAmount {
					t.Fatalf("expected ErrMalformedAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := decimal.RequireFromString(tt.wantMag)
			if !a.Magnitude.Equal(want) {
				t.Errorf("magnitude = %s, want %s", a.Magnitude, want)
			}
			if a.Outflow != tt.wantOutflow {
				t.Errorf("outflow = %v, want %v", a.Outflow, tt.wantOutflow)
			}
		})
	}
}

func TestParseOptionalAmount(t *testing.T) {
	v, err := domain.ParseOptionalAmount("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Valid {
		t.Error("expected empty field to be invalid")
	}

	v, err = domain.ParseOptionalAmount("-12.34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Valid || !v.Decimal.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("expected magnitude 12.34, got %v", v)
	}
}

func TestParseRowDate(t *testing.T) {
	for _, raw := range []string{
		"2021-03-14T09:26:53+01:00",
		"2021-03-14 09:26:53",
		"2021-03-14T09:26:53",
	} {
		if _, err := domain.ParseRowDate(raw); err != nil {
			t.Errorf("ParseRowDate(%q) returned %v", raw, err)
		}
	}

	if _, err := domain.ParseRowDate("14.03.2021"); err != domain.ErrMalformedDate {
		t.Errorf("expected ErrMalformedDate, got %v", err)
	}
}

func TestVocabularyFallback(t *testing.T) {
	en := domain.VocabularyFor("en")
	de := domain.VocabularyFor("de")

	if domain.VocabularyFor("fr")[domain.TypeDeposit] != en[domain.TypeDeposit] {
		t.Error("unsupported language should fall back to English")
	}
	if de[domain.TypeDeposit] != "Einzahlung" {
		t.Errorf("unexpected German deposit wording: %s", de[domain.TypeDeposit])
	}

	for typ := range en {
		if _, ok := de[typ]; !ok {
			t.Errorf("German vocabulary is missing %s", typ)
		}
	}
}
