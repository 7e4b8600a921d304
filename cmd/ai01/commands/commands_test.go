package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupTestEnv points HOME at a temp dir so ~/.ai01 is isolated, and
// clears credential env vars.
func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"HUDDLE_PROJECT_ID", "HUDDLE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
	globalConfig = nil
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	verbose = false
	outputJSON = false
	cfgFile = ""
	contextName = ""
	envFile = ""

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "ai01") {
		t.Fatalf("expected 'ai01', got: %s", stdout)
	}
}

func TestConfigContextRoundtrip(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "config", "add-context", "dev",
		"--project-id", "proj_1", "--api-key", "key_1")
	if code != 0 {
		t.Fatalf("add-context failed: %s", stderr)
	}
	_, stderr, code = runCmd(t, "config", "use-context", "dev")
	if code != 0 {
		t.Fatalf("use-context failed: %s", stderr)
	}

	stdout, _, code := runCmd(t, "config", "get-contexts")
	if code != 0 {
		t.Fatal("get-contexts failed")
	}
	if !strings.Contains(stdout, "* dev") || !strings.Contains(stdout, "proj_1") {
		t.Fatalf("unexpected context listing: %s", stdout)
	}
	if strings.Contains(stdout, "key_1") {
		t.Fatalf("API key leaked in listing: %s", stdout)
	}
}

func TestConfigAddContextRequiresCredentials(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "config", "add-context", "dev")
	if code == 0 {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(stderr, "required") {
		t.Fatalf("unexpected error: %s", stderr)
	}
}

func TestChatbotRequiresCredentials(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "chatbot", "--room", "abc")
	if code == 0 {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(stderr, "HUDDLE_PROJECT_ID") {
		t.Fatalf("unexpected error: %s", stderr)
	}
}

func TestRoomCreateWithJQ(t *testing.T) {
	setupTestEnv(t)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms/create-room" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"roomId": "abc-defg-hij"},
		})
	}))
	defer api.Close()

	_, stderr, code := runCmd(t, "config", "add-context", "test",
		"--project-id", "p", "--api-key", "k", "--api-url", api.URL)
	if code != 0 {
		t.Fatalf("add-context failed: %s", stderr)
	}
	if _, _, code = runCmd(t, "config", "use-context", "test"); code != 0 {
		t.Fatal("use-context failed")
	}

	stdout, stderr, code := runCmd(t, "room", "create", "--jq", ".roomId")
	if code != 0 {
		t.Fatalf("room create failed: %s", stderr)
	}
	if strings.TrimSpace(stdout) != "abc-defg-hij" {
		t.Fatalf("jq output = %q, want abc-defg-hij", stdout)
	}
}

func TestLoadPersona(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/persona.yaml"
	data := "name: Support Bot\nvoice: alloy\ntemperature: 0.7\ninstructions: Be brief.\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := loadPersona(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Support Bot" || p.Voice != "alloy" || p.Instructions != "Be brief." {
		t.Fatalf("unexpected persona %+v", p)
	}
	if p.Temperature == nil || *p.Temperature != 0.7 {
		t.Fatalf("temperature = %v", p.Temperature)
	}

	empty, err := loadPersona("")
	if err != nil || empty.Name != "" {
		t.Fatalf("empty path should yield zero persona, got %+v, %v", empty, err)
	}

	if _, err := loadPersona(dir + "/missing.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOutputFiltered(t *testing.T) {
	setupTestEnv(t)

	type result struct {
		RoomID string `json:"roomId"`
		Title  string `json:"title"`
	}

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	err := outputFiltered(result{RoomID: "r1", Title: "t"}, `{id: .roomId}`)
	w.Close()
	os.Stdout = oldStdout
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if strings.TrimSpace(buf.String()) != `{"id":"r1"}` {
		t.Fatalf("output = %q", buf.String())
	}

	if err := outputFiltered(result{}, "..bad jq(("); err == nil {
		t.Fatal("expected parse error for invalid jq")
	}
}
