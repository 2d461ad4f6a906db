package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	values := []string{"0", "100", "0.0001", "-42.5", "999999999999.9999"}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			want := decimal.RequireFromString(v)

			got := numericToDecimal(decimalToNumeric(want))

			if !got.Equal(want) {
				t.Fatalf("round trip of %s produced %s", want, got)
			}
		})
	}
}

func TestNumericToDecimalDegenerateValues(t *testing.T) {
	tests := []struct {
		name string
		in   pgtype.Numeric
	}{
		{"null", pgtype.Numeric{}},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}},
		{"valid without digits", pgtype.Numeric{Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numericToDecimal(tt.in); !got.IsZero() {
				t.Fatalf("expected zero, got %s", got)
			}
		})
	}
}

func TestNullableText(t *testing.T) {
	if nullableText("").Valid {
		t.Fatalf("empty string must map to SQL NULL")
	}

	txt := nullableText("acc-1")
	if !txt.Valid || txt.String != "acc-1" {
		t.Fatalf("unexpected pgtype.Text: %+v", txt)
	}
}
