package model

import "testing"

func TestParseOsType(t *testing.T) {
	cases := []struct {
		in      string
		want    OsType
		wantErr bool
	}{
		{"linux", OsLinux, false},
		{"Linux", OsLinux, false},
		{"WINDOWS", OsWindows, false},
		{"solaris", "", true},
	}
	for _, c := range cases {
		got, err := ParseOsType(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseOsType(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
		}
		if err == nil && got != c.want {
			t.Errorf("ParseOsType(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOsTypePredicates(t *testing.T) {
	if !OsLinux.IsLinux() || OsLinux.IsWindows() {
		t.Error("OsLinux predicates inconsistent")
	}
	if !OsWindows.IsWindows() || OsWindows.IsLinux() {
		t.Error("OsWindows predicates inconsistent")
	}
	if OsLinux.String() != "linux" {
		t.Errorf("String() = %q, want linux", OsLinux.String())
	}
}
