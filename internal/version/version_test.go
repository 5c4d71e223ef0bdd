package version

import "testing"

func TestShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"release", Info{Version: "1.2.0", Revision: "abcdef1234567"}, "1.2.0"},
		{"dev without vcs", Info{Version: "dev"}, "dev"},
		{"dev with vcs", Info{Version: "dev", Revision: "abcdef1234567"}, "dev-abcdef12"},
		{"dev modified", Info{Version: "dev", Revision: "abc", Modified: true}, "dev-abc+dirty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	info := Info{Version: "1.0.0", GoVersion: "go1.24.0", BuildTime: "2025-09-06"}
	if got, want := info.String(), "ridership 1.0.0 (go1.24.0), built 2025-09-06"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
