package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoadCreatesEmptyConfig(t *testing.T) {
	cfg := tempConfig(t)
	if len(cfg.Contexts) != 0 {
		t.Fatalf("expected empty contexts, got %d", len(cfg.Contexts))
	}
	if _, err := os.Stat(cfg.Path()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestContextLifecycle(t *testing.T) {
	cfg := tempConfig(t)

	err := cfg.AddContext("prod", &Context{
		ProjectID:    "proj_123",
		APIKey:       "hud_key",
		OpenAIAPIKey: "sk-test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.UseContext("prod"); err != nil {
		t.Fatal(err)
	}

	// Reload from disk and resolve.
	cfg2, err := LoadConfigWithPath(cfg.Path())
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := cfg2.ResolveContext("")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.ProjectID != "proj_123" || ctx.OpenAIAPIKey != "sk-test" {
		t.Fatalf("unexpected context %+v", ctx)
	}
	if ctx.Name != "prod" {
		t.Fatalf("context name = %q, want prod", ctx.Name)
	}

	if err := cfg2.DeleteContext("prod"); err != nil {
		t.Fatal(err)
	}
	if cfg2.CurrentContext != "" {
		t.Fatal("deleting current context should clear CurrentContext")
	}
	if _, err := cfg2.ResolveContext("prod"); err == nil {
		t.Fatal("expected error resolving deleted context")
	}
}

func TestUseUnknownContext(t *testing.T) {
	cfg := tempConfig(t)
	if err := cfg.UseContext("nope"); err == nil {
		t.Fatal("expected error for unknown context")
	}
}

func TestResolveWithoutCurrent(t *testing.T) {
	cfg := tempConfig(t)
	if _, err := cfg.ResolveContext(""); err == nil {
		t.Fatal("expected error with no current context")
	}
}

func TestContextExtra(t *testing.T) {
	ctx := &Context{}
	if got := ctx.GetExtra("voice"); got != "" {
		t.Fatalf("GetExtra on empty = %q", got)
	}
	ctx.SetExtra("voice", "Puck")
	if got := ctx.GetExtra("voice"); got != "Puck" {
		t.Fatalf("GetExtra = %q, want Puck", got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-1234567890abcdef", "sk-1***********cdef"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.in); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	masked := MaskAPIKey("sk-verysecretkey123")
	if strings.Contains(masked, "secret") {
		t.Fatalf("mask leaks key material: %q", masked)
	}
}
