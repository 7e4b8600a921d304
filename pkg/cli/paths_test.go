package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPathsLayout(t *testing.T) {
	p := &Paths{HomeDir: "/home/bot"}

	if got := p.BaseDir(); got != filepath.Join("/home/bot", ".ai01") {
		t.Fatalf("BaseDir = %q", got)
	}
	if got := p.ConfigFile(); !strings.HasSuffix(got, "config.yaml") {
		t.Fatalf("ConfigFile = %q", got)
	}
	if got := p.DataPath("complaints"); got != filepath.Join("/home/bot", ".ai01", "data", "complaints") {
		t.Fatalf("DataPath = %q", got)
	}
	if got := p.RecordingsDir(); !strings.Contains(got, "recordings") {
		t.Fatalf("RecordingsDir = %q", got)
	}
}
