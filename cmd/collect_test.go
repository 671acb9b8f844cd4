package cmd

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"remote", "remote", false},
		{"local-ephemeral", "local_ephemeral", false},
		{"bogus", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := parseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseMode(%q) expected error, got nil", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseMode(%q): %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("parseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExitCodeErrorMessage(t *testing.T) {
	err := ExitCodeError{Code: 2}
	if err.Error() != "exit 2" {
		t.Errorf("Error() = %q, want %q", err.Error(), "exit 2")
	}
}
