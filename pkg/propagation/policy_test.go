package propagation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()
	if policy.TagPrefix != "v" {
		t.Errorf("TagPrefix = %q, want %q", policy.TagPrefix, "v")
	}
	if !strings.Contains(policy.CommitMessage, "{version}") {
		t.Error("default commit message should contain the {version} placeholder")
	}
	if !policy.Guards.DisallowDirtyWorktree {
		t.Error("dirty worktree guard should default on")
	}
}

func TestLoadPolicyMissingFileUsesDefaults(t *testing.T) {
	policy, err := LoadPolicy(t.TempDir())
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.TagPrefix != "v" {
		t.Errorf("expected default policy, got tag prefix %q", policy.TagPrefix)
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, `tag_prefix: release-
commit_message: "chore: release {version}"
exclude:
  - "legacy/**"
guards:
  required_branches: ["main"]
  disallow_dirty_worktree: false
`)

	policy, err := LoadPolicy(dir)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.TagPrefix != "release-" {
		t.Errorf("TagPrefix = %q", policy.TagPrefix)
	}
	if policy.Guards.DisallowDirtyWorktree {
		t.Error("guard should be overridden to false")
	}
	if len(policy.Guards.RequiredBranches) != 1 || policy.Guards.RequiredBranches[0] != "main" {
		t.Errorf("RequiredBranches = %v", policy.Guards.RequiredBranches)
	}
	if len(policy.Exclude) != 1 || policy.Exclude[0] != "legacy/**" {
		t.Errorf("Exclude = %v", policy.Exclude)
	}
}

func TestLoadPolicyEnvOverride(t *testing.T) {
	t.Setenv("RELFORGE_TAG_PREFIX", "rel-")

	policy, err := LoadPolicy(t.TempDir())
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if policy.TagPrefix != "rel-" {
		t.Errorf("environment should override the default, got %q", policy.TagPrefix)
	}
}

func TestLoadPolicyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &ReleasePolicy{
		TagPrefix:     "release-",
		CommitMessage: "cut {version}",
		Exclude:       []string{"vendor/**"},
	}
	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	writePolicy(t, dir, string(data))

	got, err := LoadPolicy(dir)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if got.TagPrefix != want.TagPrefix || got.CommitMessage != want.CommitMessage {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if len(got.Exclude) != 1 || got.Exclude[0] != "vendor/**" {
		t.Errorf("Exclude = %v", got.Exclude)
	}
}

func TestLoadPolicyRejectsMissingPlaceholder(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, `commit_message: "release"`)

	if _, err := LoadPolicy(dir); err == nil {
		t.Error("expected an error for a commit message without {version}")
	}
}

func TestLoadPolicyRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "tag_prefix: [broken")

	if _, err := LoadPolicy(dir); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestRenderCommitMessage(t *testing.T) {
	policy := DefaultPolicy()
	if got := policy.RenderCommitMessage("1.2.3"); got != "Release version 1.2.3" {
		t.Errorf("got %q", got)
	}
}

func TestTagName(t *testing.T) {
	policy := DefaultPolicy()
	if got := policy.TagName("1.2.3"); got != "v1.2.3" {
		t.Errorf("got %q", got)
	}
	policy.TagPrefix = ""
	if got := policy.TagName("1.2.3"); got != "1.2.3" {
		t.Errorf("got %q", got)
	}
}

func TestGeneratePolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := PolicyPath(dir)
	if err := GeneratePolicyFile(path); err != nil {
		t.Fatalf("GeneratePolicyFile failed: %v", err)
	}

	// The generated sample must load cleanly.
	policy, err := LoadPolicy(dir)
	if err != nil {
		t.Fatalf("generated policy should load: %v", err)
	}
	if policy.TagPrefix != "v" {
		t.Errorf("TagPrefix = %q", policy.TagPrefix)
	}
}

func writePolicy(t *testing.T, root, contents string) {
	t.Helper()
	path := PolicyPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
}
