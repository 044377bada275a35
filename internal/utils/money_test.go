package utils

import (
	"testing"
	"time"
)

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:        "USD 0",
		999:      "USD 999",
		144000:   "USD 144.000",
		-1234567: "USD -1.234.567",
	}
	for in, want := range cases {
		if got := FormatMoney(in, "USD"); got != want {
			t.Fatalf("FormatMoney(%d) = %q, want %q", in, got, want)
		}
	}
	if FormatMoney(5, "") != "5" {
		t.Fatalf("empty currency should print the number only")
	}
}

func TestValidDate(t *testing.T) {
	if !ValidDate("") || !ValidDate("2025-02-28") {
		t.Fatalf("valid dates rejected")
	}
	if ValidDate("28/02/2025") || ValidDate("2025-02-30") {
		t.Fatalf("invalid dates accepted")
	}
	if FormatDateTime(time.Time{}) != "-" {
		t.Fatalf("zero time should print a dash")
	}
}
