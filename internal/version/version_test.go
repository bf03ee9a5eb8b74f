package version

import (
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	if info.Version == "" {
		t.Error("version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("go version should not be empty")
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("platform should be os/arch, got %q", info.Platform)
	}
}

func TestString(t *testing.T) {
	info := Info{
		Version:   "1.2.3",
		Commit:    "abcdef1234567890",
		Date:      "2026-01-01",
		GoVersion: "go1.24",
		Platform:  "linux/amd64",
	}

	s := info.String()
	if !strings.Contains(s, "1.2.3") {
		t.Errorf("string should contain version, got %q", s)
	}
	if !strings.Contains(s, "abcdef12") || strings.Contains(s, "abcdef1234") {
		t.Errorf("commit should be shortened to 8 chars, got %q", s)
	}
}

func TestUserAgent(t *testing.T) {
	if !strings.HasPrefix(UserAgent(), "appray-cli/") {
		t.Errorf("UserAgent() = %q, want appray-cli/ prefix", UserAgent())
	}
}

func TestShort(t *testing.T) {
	info := Info{Version: "1.2.3"}
	if info.Short() != "1.2.3" {
		t.Errorf("Short() = %q, want %q", info.Short(), "1.2.3")
	}
}
