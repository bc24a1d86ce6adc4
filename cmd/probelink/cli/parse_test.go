package cli

import "testing"

func TestParseBase(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0x1000", 4096},
		{"0X1000", 4096},
		{"0b1010", 10},
		{"0o77", 63},
		{"4096", 4096},
		{"0", 0},
		{" 0x08000000 ", 0x0800_0000},
	}
	for _, c := range cases {
		got, err := ParseBase(c.in)
		if err != nil {
			t.Errorf("ParseBase(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseBase(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseBaseRejects(t *testing.T) {
	for _, in := range []string{"", "0x", "0xzz", "0b102", "0o9", "ten", "-1"} {
		if _, err := ParseBase(in); err == nil {
			t.Errorf("ParseBase(%q) accepted", in)
		}
	}
}

func TestParseProtocol(t *testing.T) {
	cases := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"swd", 1},
		{"SWD", 1},
		{"jtag", 2},
		{" jtag ", 2},
	}
	for _, c := range cases {
		got, err := parseProtocol(c.in)
		if err != nil {
			t.Errorf("parseProtocol(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseProtocol(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	if _, err := parseProtocol("uart"); err == nil {
		t.Error("parseProtocol accepted uart")
	}
}
