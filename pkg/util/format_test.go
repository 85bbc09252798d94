package util

import (
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "$0.00"},
		{f(0), "$0.00"},
		{f(999.994), "$999.99"},
		{f(1000), "$1K"},
		{f(125000), "$125K"},
		{f(999_499), "$999K"},
		{f(1_500_000), "$1.5M"},
		{f(2_340_000_000), "$2.3B"},
		{f(1e9), "$1.0B"},
	}
	for _, c := range cases {
		if got := FormatUSD(c.in); got != c.want {
			t.Fatalf("FormatUSD(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatSOL(t *testing.T) {
	if got := FormatSOL(nil); got != "0.00 SOL" {
		t.Fatalf("nil: %q", got)
	}
	if got := FormatSOL(f(2.256)); got != "2.26 SOL" {
		t.Fatalf("2.256: %q", got)
	}
	if got := FormatSOL(f(0.5)); got != "0.50 SOL" {
		t.Fatalf("0.5: %q", got)
	}
}

func TestFormatROIAndPrice(t *testing.T) {
	if got := FormatROI(f(12.34)); got != "+12.3%" {
		t.Fatalf("roi: %q", got)
	}
	if got := FormatROI(f(-3.25)); got != "-3.3%" {
		t.Fatalf("roi: %q", got)
	}
	if got := FormatROI(nil); got != "+0.0%" {
		t.Fatalf("roi nil: %q", got)
	}
	if got := FormatPrice(f(0.000021)); got != "$0.000021" {
		t.Fatalf("price: %q", got)
	}
	if got := FormatPrice(nil); got != "N/A" {
		t.Fatalf("price nil: %q", got)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	ms := now.UnixMilli()
	cases := []struct {
		ts   int64
		want string
	}{
		{ms, "Just now"},
		{ms - 59_999, "Just now"},
		{ms + 5_000, "Just now"},
		{ms - 60_000, "1m ago"},
		{ms - 59*60_000, "59m ago"},
		{ms - 60*60_000, "1h ago"},
		{ms - 23*3_600_000 - 59*60_000, "23h ago"},
		{ms - 24*3_600_000, "1d ago"},
		{ms - 10*86_400_000, "10d ago"},
	}
	for _, c := range cases {
		if got := FormatTimeAgo(c.ts, now); got != c.want {
			t.Fatalf("FormatTimeAgo(now-%dms) = %q, want %q", ms-c.ts, got, c.want)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("42", 7) != 42 {
		t.Fatalf("unexpected ParseIntDefault result")
	}
}
