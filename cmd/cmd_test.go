package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relforge/relforge/pkg/exitcode"
	"github.com/relforge/relforge/pkg/propagation"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "relforge dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestReleaseRejectsInvalidComponent(t *testing.T) {
	_, err := execute(t, "release", "huge", "--dir", t.TempDir())
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := exitCodeFor(err); code != exitcode.ValidationError {
		t.Errorf("exit code = %d, want %d", code, exitcode.ValidationError)
	}
}

func TestReleaseRequiresRepository(t *testing.T) {
	_, err := execute(t, "release", "patch", "--dir", t.TempDir())
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := exitCodeFor(err); code != exitcode.GitError {
		t.Errorf("exit code = %d, want %d", code, exitcode.GitError)
	}
}

func TestSetRewritesManifests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	contents := "[package]\nname = \"x\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "set", "1.0.0", "--dir", dir); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[package]\nname = \"x\"\nversion = \"1.0.0\"\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestSetDryRunLeavesFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	contents := "[package]\nname = \"x\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "set", "1.0.0", "--dir", dir, "--dry-run"); err != nil {
		t.Fatalf("set --dry-run failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != contents {
		t.Error("dry run must not modify manifests")
	}
}

func TestSetRejectsInvalidVersion(t *testing.T) {
	_, err := execute(t, "set", "1.2", "--dir", t.TempDir())
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := exitCodeFor(err); code != exitcode.ValidationError {
		t.Errorf("exit code = %d, want %d", code, exitcode.ValidationError)
	}
}

func TestInitGeneratesPolicy(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "init", "--dir", dir); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(propagation.PolicyPath(dir)); err != nil {
		t.Errorf("policy file should exist: %v", err)
	}

	_, err := execute(t, "init", "--dir", dir)
	if err == nil {
		t.Fatal("second init should refuse to overwrite")
	}
	if code := exitCodeFor(err); code != exitcode.ConfigError {
		t.Errorf("exit code = %d, want %d", code, exitcode.ConfigError)
	}
}

func TestExitCodeFor(t *testing.T) {
	if code := exitCodeFor(errors.New("plain")); code != exitcode.GeneralError {
		t.Errorf("plain error should map to %d, got %d", exitcode.GeneralError, code)
	}
	err := withCode(exitcode.GitError, errors.New("push refused"))
	if code := exitCodeFor(err); code != exitcode.GitError {
		t.Errorf("coded error should map to %d, got %d", exitcode.GitError, code)
	}
	if err.Error() != "push refused" {
		t.Errorf("message should pass through, got %q", err.Error())
	}
}
