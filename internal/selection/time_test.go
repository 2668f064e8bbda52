package selection

import "testing"

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"iso form", "2011-01-01T00:00:00", "2011-01-01T00:00:00"},
		{"comma separated", "2011,01,01,00,00,00", "2011-01-01T00:00:00"},
		{"slash date colon time", "2011/01/01 12:30:45", "2011-01-01T12:30:45"},
		{"single digit fields", "2011-1-1T2:3:4", "2011-01-01T02:03:04"},
		{"fractional seconds", "2011-01-01T00:00:00.123456", "2011-01-01T00:00:00.123456"},
		{"date only", "2011-06-15", "2011-06-15T00:00:00"},
		{"whitespace separated", "2011 01 01 00 00 00", "2011-01-01T00:00:00"},
		{"mixed separators", "2011.01.01,12/30-45", "2011-01-01T12:30:45"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeTime(tc.in)
			if err != nil {
				t.Fatalf("NormalizeTime(%q) failed: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("NormalizeTime(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeTimeIdempotent(t *testing.T) {
	inputs := []string{
		"2011,01,01,00,00,00",
		"2011/01/01 12:30:45",
		"2011-06-15",
		"2011-01-01T00:00:00.5",
	}
	for _, in := range inputs {
		once, err := NormalizeTime(in)
		if err != nil {
			t.Fatalf("NormalizeTime(%q) failed: %v", in, err)
		}
		twice, err := NormalizeTime(once)
		if err != nil {
			t.Fatalf("re-normalizing %q failed: %v", once, err)
		}
		if once != twice {
			t.Errorf("normalization not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeTimeRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"2011-01",                     // 2 fields
		"2011-01-01T00:00",            // 5 fields
		"2011-01-01T00:00:00:00:00",   // 8 fields
		"11-01-01",                    // 2-digit year
		"2011-0x-01",                  // non-numeric
		"2011-013-01",                 // 3-digit month
		"2011-01-01T00:00:00.1234567", // 7-digit fraction
	}
	for _, in := range bad {
		if got, err := NormalizeTime(in); err == nil {
			t.Errorf("NormalizeTime(%q) = %q, want error", in, got)
		}
	}
}
