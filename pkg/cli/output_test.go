package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	result := map[string]any{"roomId": "abc", "locked": false}
	if err := Output(result, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["roomId"] != "abc" {
		t.Errorf("roomId = %v, want abc", got["roomId"])
	}
}

func TestOutputYAMLDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(map[string]string{"name": "dev"}, OutputOptions{Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: dev") {
		t.Errorf("unexpected YAML output: %q", buf.String())
	}
}

func TestOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	err := Output(map[string]int{"n": 7}, OutputOptions{Format: FormatJSON, File: path})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"n": 7`) {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestOutputBadFormat(t *testing.T) {
	if err := Output("x", OutputOptions{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseRequest(t *testing.T) {
	type req struct {
		Name  string `yaml:"name" json:"name"`
		Voice string `yaml:"voice" json:"voice"`
	}

	var r req
	if err := ParseRequest([]byte("name: bot\nvoice: alloy\n"), "p.yaml", &r); err != nil {
		t.Fatal(err)
	}
	if r.Name != "bot" || r.Voice != "alloy" {
		t.Errorf("got %+v", r)
	}

	r = req{}
	if err := ParseRequest([]byte(`{"name":"bot2"}`), "p.json", &r); err != nil {
		t.Fatal(err)
	}
	if r.Name != "bot2" {
		t.Errorf("got %+v", r)
	}

	// no extension: try both
	r = req{}
	if err := ParseRequest([]byte(`{"name":"bot3"}`), "persona", &r); err != nil {
		t.Fatal(err)
	}
	if r.Name != "bot3" {
		t.Errorf("got %+v", r)
	}
}

func TestLoadRequestMissingFile(t *testing.T) {
	var v map[string]any
	if err := LoadRequest(filepath.Join(t.TempDir(), "nope.yaml"), &v); err == nil {
		t.Fatal("expected error for missing file")
	}
}
