package managers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/relforge/relforge/pkg/logger"
	"github.com/relforge/relforge/pkg/propagation"
	"github.com/relforge/relforge/pkg/semver"
)

// cargoTomlState tracks the line scan through a Cargo.toml file.
type cargoTomlState int

const (
	cargoTomlInitial cargoTomlState = iota
	cargoTomlInPackageSection
	cargoTomlStop
)

// CargoTomlProcessor rewrites the version field inside the [package] section
// of a Cargo.toml file. Lines outside that section pass through untouched;
// the output always uses LF line endings and ends with a newline.
type CargoTomlProcessor struct{}

// Process implements propagation.ContentProcessor.
func (p *CargoTomlProcessor) Process(oldContents string, version semver.SemVer) (string, error) {
	var builder strings.Builder
	state := cargoTomlInitial
	for _, line := range splitLines(oldContents) {
		out := line
		switch state {
		case cargoTomlInitial:
			if line == "[package]" {
				state = cargoTomlInPackageSection
			}
		case cargoTomlInPackageSection:
			if strings.HasPrefix(line, "[") {
				state = cargoTomlStop
			} else if isTOMLKey(line, "version") {
				out = `version = "` + version.String() + `"`
			}
		case cargoTomlStop:
		}
		builder.WriteString(out)
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}

// packageName extracts the raw name value from the [package] section. The
// value is returned exactly as found, quotes included: the lock file records
// the name in the same quoting, so matching raw text avoids unquoting rules.
func packageName(contents string) string {
	state := cargoTomlInitial
	for _, line := range splitLines(contents) {
		switch state {
		case cargoTomlInitial:
			if line == "[package]" {
				state = cargoTomlInPackageSection
			}
		case cargoTomlInPackageSection:
			if strings.HasPrefix(line, "[") {
				return ""
			}
			if value, ok := tomlKeyValue(line, "name"); ok {
				return value
			}
		}
	}
	return ""
}

// cargoLockState tracks the line scan through a Cargo.lock file.
type cargoLockState int

const (
	cargoLockInitial cargoLockState = iota
	cargoLockInPackageSection
	cargoLockInMatchedRecord
	cargoLockStop
)

// CargoLockProcessor rewrites the version of a single named package inside a
// Cargo.lock file. The record is identified by its name field first, and only
// the first version line after the match is rewritten; every other record
// passes through untouched. A lock file without the named record is returned
// unchanged (modulo LF normalization) rather than treated as an error.
type CargoLockProcessor struct {
	// name is the raw quoted package name as it appears in Cargo.toml.
	name string
}

// NewCargoLockProcessor creates a processor targeting the given raw name.
func NewCargoLockProcessor(name string) *CargoLockProcessor {
	return &CargoLockProcessor{name: name}
}

// Process implements propagation.ContentProcessor.
func (p *CargoLockProcessor) Process(oldContents string, version semver.SemVer) (string, error) {
	var builder strings.Builder
	state := cargoLockInitial
	for _, line := range splitLines(oldContents) {
		out := line
		switch state {
		case cargoLockInitial:
			if line == "[[package]]" {
				state = cargoLockInPackageSection
			}
		case cargoLockInPackageSection:
			if value, ok := tomlKeyValue(line, "name"); ok && value == p.name {
				state = cargoLockInMatchedRecord
			}
		case cargoLockInMatchedRecord:
			if isTOMLKey(line, "version") {
				out = `version = "` + version.String() + `"`
				state = cargoLockStop
			}
		case cargoLockStop:
		}
		builder.WriteString(out)
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}

// isTOMLKey checks whether the line assigns the given key: the line starts
// with the key text and the remainder, after leading whitespace, starts
// with '='.
func isTOMLKey(line, key string) bool {
	if line == "" || key == "" || !strings.HasPrefix(line, key) {
		return false
	}
	rest := strings.TrimLeft(line[len(key):], " \t")
	return strings.HasPrefix(rest, "=")
}

// tomlKeyValue returns the raw value assigned to key on this line, with only
// leading whitespace trimmed. Quotes and trailing content are preserved.
func tomlKeyValue(line, key string) (string, bool) {
	if !isTOMLKey(line, key) {
		return "", false
	}
	rest := strings.TrimLeft(line[len(key):], " \t")
	rest = rest[1:] // consume '='
	return strings.TrimLeft(rest, " \t"), true
}

// CargoUpdater handles Cargo.toml and its companion Cargo.lock. Discovery is
// by fixed name directly under the root directory.
type CargoUpdater struct{}

// NewCargoUpdater creates a new Cargo updater.
func NewCargoUpdater() *CargoUpdater {
	return &CargoUpdater{}
}

// Name implements propagation.Updater.
func (u *CargoUpdater) Name() string {
	return "cargo"
}

// Update implements propagation.Updater. The lock file is processed even when
// Cargo.toml itself needed no change, in case someone bumped the version only
// in the manifest.
func (u *CargoUpdater) Update(root string, version semver.SemVer) ([]propagation.FileChange, error) {
	tomlPath := filepath.Join(root, "Cargo.toml")
	if _, err := os.Stat(tomlPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", tomlPath, err)
	}

	oldToml, err := propagation.ReadFileText(tomlPath)
	if err != nil {
		return nil, err
	}

	var changes []propagation.FileChange
	tomlProcessor := &CargoTomlProcessor{}
	newToml, err := tomlProcessor.Process(oldToml, version)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", tomlPath, err)
	}
	if oldToml != newToml {
		changes = append(changes, propagation.FileChange{Path: tomlPath, NewContents: newToml})
	}

	lockPath := filepath.Join(root, "Cargo.lock")
	if _, err := os.Stat(lockPath); err != nil {
		if os.IsNotExist(err) {
			return changes, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", lockPath, err)
	}

	name := packageName(oldToml)
	if name == "" {
		logger.Debug("Cargo.toml has no package name, skipping lock file",
			logger.String("file", tomlPath))
		return changes, nil
	}

	oldLock, err := propagation.ReadFileText(lockPath)
	if err != nil {
		return nil, err
	}
	newLock, err := NewCargoLockProcessor(name).Process(oldLock, version)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", lockPath, err)
	}
	if oldLock != newLock {
		changes = append(changes, propagation.FileChange{Path: lockPath, NewContents: newLock})
	}
	return changes, nil
}

// ExtractVersion parses Cargo.toml properly and returns the declared package
// version. Extraction parses; rewriting stays line-oriented so formatting and
// comments survive.
func (u *CargoUpdater) ExtractVersion(file string) (string, error) {
	data, err := os.ReadFile(file) // #nosec G304 - fixed name under caller-supplied root
	if err != nil {
		return "", fmt.Errorf("failed to read Cargo.toml: %w", err)
	}

	var manifest struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse Cargo.toml: %w", err)
	}
	if manifest.Package.Version == "" {
		return "", fmt.Errorf("no version field found in [package] section")
	}
	return manifest.Package.Version, nil
}
