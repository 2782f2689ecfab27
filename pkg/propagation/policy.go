package propagation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/relforge/relforge/pkg/logger"
)

// ReleasePolicy defines the structure of .relforge/policy.yaml. It controls
// how releases are tagged and which discovered files are left alone.
type ReleasePolicy struct {
	TagPrefix     string       `yaml:"tag_prefix" mapstructure:"tag_prefix"`
	CommitMessage string       `yaml:"commit_message" mapstructure:"commit_message"`
	Exclude       []string     `yaml:"exclude,omitempty" mapstructure:"exclude"`
	Guards        GuardsConfig `yaml:"guards,omitempty" mapstructure:"guards"`
}

// GuardsConfig defines execution preconditions
type GuardsConfig struct {
	RequiredBranches      []string `yaml:"required_branches,omitempty" mapstructure:"required_branches"`
	DisallowDirtyWorktree bool     `yaml:"disallow_dirty_worktree" mapstructure:"disallow_dirty_worktree"`
}

// DefaultPolicy returns the policy used when no policy file exists.
func DefaultPolicy() *ReleasePolicy {
	return &ReleasePolicy{
		TagPrefix:     "v",
		CommitMessage: "Release version {version}",
		Guards: GuardsConfig{
			DisallowDirtyWorktree: true,
		},
	}
}

// PolicyPath returns the policy file location under the given root.
func PolicyPath(root string) string {
	return filepath.Join(root, ".relforge", "policy.yaml")
}

// LoadPolicy loads the release policy for the project at root. Values come
// from defaults, then .relforge/policy.yaml, then RELFORGE_* environment
// variables (e.g. RELFORGE_TAG_PREFIX), each layer overriding the previous.
// A missing policy file is not an error.
func LoadPolicy(root string) (*ReleasePolicy, error) {
	path := PolicyPath(root)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := DefaultPolicy()
	v.SetDefault("tag_prefix", defaults.TagPrefix)
	v.SetDefault("commit_message", defaults.CommitMessage)
	v.SetDefault("guards.disallow_dirty_worktree", defaults.Guards.DisallowDirtyWorktree)

	v.SetEnvPrefix("RELFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
		}
		logger.Debug("Policy file not found, using defaults", logger.String("path", path))
	} else {
		logger.Debug("Loaded release policy", logger.String("path", path))
	}

	policy := &ReleasePolicy{}
	if err := v.Unmarshal(policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	if err := policy.validate(); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return policy, nil
}

func (p *ReleasePolicy) validate() error {
	if !strings.Contains(p.CommitMessage, "{version}") {
		return fmt.Errorf("commit_message must contain the {version} placeholder")
	}
	for _, pattern := range p.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("exclude patterns must not be empty")
		}
	}
	return nil
}

// RenderCommitMessage expands the {version} placeholder in the configured
// commit message template.
func (p *ReleasePolicy) RenderCommitMessage(version string) string {
	return strings.ReplaceAll(p.CommitMessage, "{version}", version)
}

// TagName returns the tag for a version string, applying the tag prefix.
func (p *ReleasePolicy) TagName(version string) string {
	return p.TagPrefix + version
}

// GeneratePolicyFile writes a commented sample policy to path.
func GeneratePolicyFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	content := `# relforge release policy
# Controls tagging, commit messages, and which manifests are left alone.

tag_prefix: v                              # prepended to the version when tagging
commit_message: "Release version {version}"

# Glob patterns (relative to the repository root) excluded from rewriting.
# exclude:
#   - "legacy/**"
#   - "examples/*.vbp"

guards: # Execution preconditions
  disallow_dirty_worktree: true
  # required_branches: ["main", "release/*"]
`

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write policy file %s: %w", path, err)
	}

	logger.Info("Generated sample policy file", logger.String("path", path))
	return nil
}
