package managers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/relforge/relforge/pkg/semver"
)

const lpiFixture = `<?xml version="1.0" encoding="UTF-8"?>
<CONFIG>
  <ProjectOptions>
    <Version Value="11"/>
    <i18n>
      <EnableI18N LFM="False"/>
    </i18n>
    <VersionInfo>
      <UseVersionInfo Value="True"/>
      <AutoIncrementBuild Value="True"/>
      <MajorVersionNr Value="1"/>
      <MinorVersionNr Value="1"/>
      <RevisionNr Value="2"/>
      <BuildNr Value="2"/>
    </VersionInfo>
  </ProjectOptions>
</CONFIG>
`

func TestLazarusProcessAllElementsPresent(t *testing.T) {
	processor := &LazarusProcessor{}
	got, err := processor.Process(lpiFixture, semver.New(3, 4, 5))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	checks := []string{
		`MajorVersionNr Value="3"`,
		`MinorVersionNr Value="4"`,
		`RevisionNr Value="5"`,
		`Version Value="11"`,
		`UseVersionInfo Value="True"`,
		`AutoIncrementBuild Value="True"`,
		`BuildNr Value="2"`,
		`EnableI18N LFM="False"`,
	}
	for _, check := range checks {
		if !strings.Contains(got, check) {
			t.Errorf("output should contain %q\n%s", check, got)
		}
	}
	if !strings.HasSuffix(got, "</CONFIG>\n") {
		t.Errorf("output should end with the closing root tag and one newline\n%q", got)
	}
	if strings.HasSuffix(got, "\n\n") {
		t.Error("output should end with exactly one newline")
	}
}

func TestLazarusProcessInsertsMissingElements(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<CONFIG>
  <ProjectOptions>
    <VersionInfo>
      <MinorVersionNr Value="1"/>
    </VersionInfo>
  </ProjectOptions>
</CONFIG>
`
	got, err := (&LazarusProcessor{}).Process(input, semver.New(2, 3, 4))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	minor := strings.Index(got, `MinorVersionNr Value="3"`)
	major := strings.Index(got, `MajorVersionNr Value="2"`)
	patch := strings.Index(got, `RevisionNr Value="4"`)
	if minor < 0 || major < 0 || patch < 0 {
		t.Fatalf("all three version elements should be present\n%s", got)
	}
	// The existing minor element stays first; major and patch are appended to
	// the block in that order.
	if !(minor < major && major < patch) {
		t.Errorf("insertion order wrong: minor=%d major=%d patch=%d\n%s", minor, major, patch, got)
	}
}

func TestLazarusProcessUpdatesExistingValueAttribute(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<CONFIG>
  <ProjectOptions>
    <VersionInfo>
      <MajorVersionNr Oops="1"/>
    </VersionInfo>
  </ProjectOptions>
</CONFIG>
`
	got, err := (&LazarusProcessor{}).Process(input, semver.New(2, 3, 4))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	// The Value attribute is added after the existing attribute.
	if !strings.Contains(got, `MajorVersionNr Oops="1" Value="2"`) {
		t.Errorf("existing attributes should be kept and Value appended\n%s", got)
	}
	if !strings.Contains(got, `MinorVersionNr Value="3"`) || !strings.Contains(got, `RevisionNr Value="4"`) {
		t.Errorf("missing version elements should be inserted\n%s", got)
	}
}

func TestLazarusProcessIgnoresElementsOutsideVersionInfo(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<CONFIG>
  <ProjectOptions>
    <MajorVersionNr Value="1"/>
  </ProjectOptions>
</CONFIG>
`
	got, err := (&LazarusProcessor{}).Process(input, semver.New(2, 3, 4))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.Contains(got, `MajorVersionNr Value="1"`) {
		t.Errorf("elements outside the version block should be untouched\n%s", got)
	}
	if strings.Contains(got, `Value="2"`) {
		t.Errorf("nothing should be rewritten outside the version block\n%s", got)
	}
	// No VersionInfo block means nothing to insert into.
	if strings.Contains(got, "MinorVersionNr") || strings.Contains(got, "RevisionNr") {
		t.Errorf("no elements should be inserted without a version block\n%s", got)
	}
}

func TestLazarusProcessIdempotent(t *testing.T) {
	processor := &LazarusProcessor{}
	version := semver.New(3, 4, 5)
	once, err := processor.Process(lpiFixture, version)
	if err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	twice, err := processor.Process(once, version)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	if once != twice {
		t.Errorf("processing should be idempotent\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestLazarusProcessRejectsMalformedXML(t *testing.T) {
	if _, err := (&LazarusProcessor{}).Process("<CONFIG><unclosed>", semver.New(1, 0, 0)); err == nil {
		t.Error("expected an error for malformed XML")
	}
}

func TestLazarusUpdaterUpdate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.lpi"), lpiFixture)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a project file\n")

	changes, err := NewLazarusUpdater().Update(dir, semver.New(3, 4, 5))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if filepath.Base(changes[0].Path) != "app.lpi" {
		t.Errorf("unexpected change path %s", changes[0].Path)
	}
	if !strings.Contains(changes[0].NewContents, `MajorVersionNr Value="3"`) {
		t.Error("change should carry the new major version")
	}
}

func TestLazarusUpdaterUpdateNoProjects(t *testing.T) {
	changes, err := NewLazarusUpdater().Update(t.TempDir(), semver.New(1, 0, 0))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}
