package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/townsquare/complaint_analyzer/internal/formatter"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AI_PROVIDER", "none")
	t.Setenv("VOCABULARY_PATH", "")

	root := NewRootCmd("v-test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "complaint-analyzer version v-test" {
		t.Fatalf("output = %q", out)
	}
}

func TestAnalyzeJSON(t *testing.T) {
	out, err := execute(t, "analyze", "-t", "Garbage pile", "-d", "Trash and litter near the bin", "-o", "json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var report formatter.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Result.Category != "garbage" || report.Result.Source != "rule_based" || report.Provider != "none" {
		t.Fatalf("report = %+v", report)
	}
	if strings.Join(report.Path, ",") != "start,try_fallback,compose,done" {
		t.Fatalf("path = %v", report.Path)
	}
}

func TestAnalyzeRequiresTitleAndDescription(t *testing.T) {
	if _, err := execute(t, "analyze", "-t", "Only a title"); err == nil {
		t.Fatal("expected an error without --description")
	}
	if _, err := execute(t, "analyze", "-t", " ", "-d", "x"); err == nil {
		t.Fatal("expected an error for a blank title")
	}
}

func TestAnalyzeRejectsNonImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("just some text"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "analyze", "-t", "a", "-d", "b", "-i", path)
	if err == nil || !strings.Contains(err.Error(), "unsupported image type") {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzeUnknownFormat(t *testing.T) {
	if _, err := execute(t, "analyze", "-t", "a", "-d", "b", "-o", "xml"); err == nil {
		t.Fatal("expected an error for an unknown output format")
	}
}
