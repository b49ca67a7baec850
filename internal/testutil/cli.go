package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// The ebb binary is built once per test process.
var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// CLIResult is the parsed JSON envelope of one ebb invocation.
type CLIResult struct {
	OK       bool
	Data     map[string]interface{}
	Error    *CLIError
	Meta     *CLIMeta
	RawJSON  string
	ExitCode int
}

// CLIError is the envelope's error object.
type CLIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CLIMeta is the envelope's meta object.
type CLIMeta struct {
	Count      int   `json:"count,omitempty"`
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// BuildCLI builds ./cmd/ebb into a temp directory and returns the binary path.
func BuildCLI(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		root, err := moduleRoot()
		if err != nil {
			buildErr = err
			return
		}
		dir, err := os.MkdirTemp("", "ebb-cli-bin-*")
		if err != nil {
			buildErr = err
			return
		}
		name := "ebb"
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		binaryPath = filepath.Join(dir, name)

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/ebb")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build: %w\n%s", err, out)
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build CLI: %v", buildErr)
	}
	return binaryPath
}

// moduleRoot walks up from the working directory to the go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found")
		}
		dir = parent
	}
}

// RunCLI runs ebb against the graph with --json and the graph's isolated
// config and state files.
func (g *TestGraph) RunCLI(args ...string) *CLIResult {
	g.t.Helper()
	return g.run("", args...)
}

// RunCLIWithStdin is RunCLI with stdin attached.
func (g *TestGraph) RunCLIWithStdin(stdin string, args ...string) *CLIResult {
	g.t.Helper()
	return g.run(stdin, args...)
}

func (g *TestGraph) run(stdin string, args ...string) *CLIResult {
	g.t.Helper()

	full := append([]string{
		"--graph-path", g.Path,
		"--config", g.ConfigPath,
		"--state", g.StatePath,
		"--json",
	}, args...)

	cmd := exec.Command(BuildCLI(g.t), full...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	output, err := cmd.Output()

	result := &CLIResult{RawJSON: string(output)}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		result.ExitCode = -1
	}

	var resp struct {
		OK    bool                   `json:"ok"`
		Data  map[string]interface{} `json:"data"`
		Error *CLIError              `json:"error"`
		Meta  *CLIMeta               `json:"meta"`
	}
	if err := json.Unmarshal(output, &resp); err != nil {
		result.Error = &CLIError{
			Code:    "PARSE_ERROR",
			Message: fmt.Sprintf("failed to parse JSON output: %v (raw: %q)", err, output),
		}
		return result
	}

	result.OK = resp.OK
	result.Data = resp.Data
	result.Error = resp.Error
	result.Meta = resp.Meta
	return result
}

// MustSucceed fails the test unless the envelope reports ok.
func (r *CLIResult) MustSucceed(t *testing.T) *CLIResult {
	t.Helper()
	if !r.OK {
		msg := "unknown error"
		if r.Error != nil {
			msg = r.Error.Code + ": " + r.Error.Message
		}
		t.Fatalf("expected command to succeed, got %s\nraw output: %s", msg, r.RawJSON)
	}
	return r
}

// MustFail fails the test unless the command failed with expectedCode.
func (r *CLIResult) MustFail(t *testing.T, expectedCode string) *CLIResult {
	t.Helper()
	switch {
	case r.OK:
		t.Fatalf("expected failure %s, but the command succeeded\nraw output: %s", expectedCode, r.RawJSON)
	case r.Error == nil:
		t.Fatalf("expected failure %s, but no error was reported\nraw output: %s", expectedCode, r.RawJSON)
	case r.Error.Code != expectedCode:
		t.Fatalf("expected failure %s, got %s: %s\nraw output: %s", expectedCode, r.Error.Code, r.Error.Message, r.RawJSON)
	}
	return r
}

// MustFailWithMessage fails the test unless the command failed with msgSubstr
// in its message or suggestion.
func (r *CLIResult) MustFailWithMessage(t *testing.T, msgSubstr string) *CLIResult {
	t.Helper()
	if r.OK || r.Error == nil {
		t.Fatalf("expected command to fail\nraw output: %s", r.RawJSON)
	}
	if !strings.Contains(r.Error.Message, msgSubstr) && !strings.Contains(r.Error.Suggestion, msgSubstr) {
		t.Errorf("expected error to contain %q, got %s (suggestion: %s)", msgSubstr, r.Error.Message, r.Error.Suggestion)
	}
	return r
}

// lookup follows a dotted path ("stats.inputs_updated") through Data.
func (r *CLIResult) lookup(key string) interface{} {
	var cur interface{} = r.Data
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// DataList returns the list at key, or nil.
func (r *CLIResult) DataList(key string) []interface{} {
	list, _ := r.lookup(key).([]interface{})
	return list
}

// DataInt returns the number at key, or 0.
func (r *CLIResult) DataInt(key string) int {
	f, _ := r.lookup(key).(float64)
	return int(f)
}

// DataString returns the string at key, or "".
func (r *CLIResult) DataString(key string) string {
	s, _ := r.lookup(key).(string)
	return s
}
