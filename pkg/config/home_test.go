package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveHome(t *testing.T) {
	noHome := func() (string, error) { return "", errors.New("no home") }
	userHome := func() (string, error) { return "/home/ann", nil }

	tests := []struct {
		name     string
		env      map[string]string
		userHome func() (string, error)
		want     string
	}{
		{"env var", map[string]string{envHome: "/custom", envXDGData: "/xdg"}, userHome, "/custom"},
		{"xdg data home", map[string]string{envXDGData: "/xdg"}, userHome, filepath.Join("/xdg", "screen-expect")},
		{"relative xdg ignored", map[string]string{envXDGData: "xdg"}, userHome, filepath.Join("/home/ann", ".screen-expect")},
		{"user home", nil, userHome, filepath.Join("/home/ann", ".screen-expect")},
		{"no user home", nil, noHome, filepath.Join(os.TempDir(), "screen-expect")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := resolveHome(getenv, tt.userHome); got != tt.want {
				t.Errorf("resolveHome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("SCREEN_EXPECT_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("SCREEN_EXPECT_HOME", "/first")

	first := GetHome()

	// Change env: should NOT affect cached value
	t.Setenv("SCREEN_EXPECT_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestDefaultVarsPath(t *testing.T) {
	ResetHome()
	t.Setenv("SCREEN_EXPECT_HOME", "/test/home")

	if got, want := GetDataDir(), filepath.Join("/test/home", "data"); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
	if got, want := DefaultVarsPath(), filepath.Join("/test/home", "data", "vars.db"); got != want {
		t.Errorf("DefaultVarsPath() = %q, want %q", got, want)
	}
}
