package datetime

import (
	"math"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Plain date", "2025-03-01", "2025-03-01", false},
		{"With spaces", " 2025-03-01 ", "2025-03-01", false},
		{"Timestamp", "2025-03-01T00:00:00", "2025-03-01", false},
		{"Month only", "2025-03", "", true},
		{"Garbage", "soon", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if result.Format(DateLayout) != tt.expected {
				t.Errorf("ParseDate(%q) = %s, expected %s", tt.input, result.Format(DateLayout), tt.expected)
			}
		})
	}
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected float64
	}{
		{"Same day", "2025-01-01", "2025-01-01", 0},
		{"One year", "2025-01-01", "2026-01-01", 365},
		{"Leap year February", "2024-02-01", "2024-03-01", 29},
		{"End before start", "2025-06-01", "2025-01-01", 0},
		{"Invalid start", "", "2025-01-01", 0},
		{"Invalid end", "2025-01-01", "later", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationDays(tt.start, tt.end); got != tt.expected {
				t.Errorf("DurationDays(%q, %q) = %v, expected %v", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestDurationMonths(t *testing.T) {
	got := DurationMonths("2025-01-01", "2025-09-01")
	expected := 243 / 30.44
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("DurationMonths() = %v, expected %v", got, expected)
	}

	if got := DurationMonths("2025-01-01", "2025-01-01"); got != 8 {
		t.Errorf("zero-length project should default to 8 months, got %v", got)
	}
	if got := DurationMonths("", ""); got != 8 {
		t.Errorf("missing dates should default to 8 months, got %v", got)
	}
}

func TestMonthOf(t *testing.T) {
	month, err := MonthOf("2025-12-31")
	if err != nil {
		t.Fatalf("MonthOf() unexpected error: %v", err)
	}
	if month != "2025-12" {
		t.Errorf("MonthOf() = %s, expected 2025-12", month)
	}
	if _, err := MonthOf("31/12/2025"); err == nil {
		t.Error("MonthOf() expected error for pt-BR formatted date")
	}
}

func TestIncrementMonth(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2025-01", "2025-02"},
		{"2025-12", "2026-01"},
	}
	for _, tt := range tests {
		got, err := IncrementMonth(tt.input)
		if err != nil {
			t.Fatalf("IncrementMonth(%q) unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("IncrementMonth(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
	if _, err := IncrementMonth("2025-13"); err == nil {
		t.Error("IncrementMonth() expected error for invalid month")
	}
}

func TestOffsetDate(t *testing.T) {
	got, err := OffsetDate("2025-06", MonthLayout, 8)
	if err != nil {
		t.Fatalf("OffsetDate() unexpected error: %v", err)
	}
	if got != "2026-02" {
		t.Errorf("OffsetDate() = %s, expected 2026-02", got)
	}
}

func TestMonthBeforeOrEqual(t *testing.T) {
	tests := []struct {
		first, second string
		expected      bool
	}{
		{"2025-01", "2025-02", true},
		{"2025-02", "2025-02", true},
		{"2025-03", "2025-02", false},
	}
	for _, tt := range tests {
		got, err := MonthBeforeOrEqual(tt.first, tt.second)
		if err != nil {
			t.Fatalf("MonthBeforeOrEqual() unexpected error: %v", err)
		}
		if got != tt.expected {
			t.Errorf("MonthBeforeOrEqual(%q, %q) = %v, expected %v", tt.first, tt.second, got, tt.expected)
		}
	}
}
