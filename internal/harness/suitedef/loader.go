// Package suitedef provides suite definition loading and validation.
// Suite definitions specify what to validate (scenarios, sweep rules)
// as opposed to how the harness executes them.
package suitedef

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	errSuiteMissingName      = errors.New("suite name is required")
	errSuiteEmpty            = errors.New("suite has neither scenarios nor sweeps")
	errScenarioMissingName   = errors.New("scenario missing name")
	errScenarioMissingMode   = errors.New("scenario must define exactly one of 'single' or 'bulk'")
	errBulkNegativeCount     = errors.New("bulk scenario count must not be negative")
	errSweepMissingContainer = errors.New("sweep rule missing container kind")
	errSweepMissingChild     = errors.New("sweep rule missing child kind")
	errSweepMissingUpdates   = errors.New("sweep rule has no attribute updates")
	errSweepInvalidPattern   = errors.New("sweep rule pattern does not compile")
)

// Suite is one declarative validation document: ordered lifecycle
// scenarios plus sweep rules.
type Suite struct {
	Name      string       `yaml:"name"`
	Scenarios []*Scenario  `yaml:"scenarios"`
	Sweeps    []*SweepRule `yaml:"sweeps"`
}

// Scenario names a lifecycle scenario of either the single-resource or the
// bulk form. Kind defaults to boot environments when empty.
type Scenario struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind,omitempty"`
	Single *SingleSpec `yaml:"single,omitempty"`
	Bulk   *BulkSpec   `yaml:"bulk,omitempty"`
}

// SingleSpec parameterizes a single-resource scenario. An empty
// ResourceName makes the runner generate a unique one.
type SingleSpec struct {
	ResourceName string `yaml:"resource_name,omitempty"`
}

// BulkSpec parameterizes a bulk scenario: count resources named
// prefix+index. Omitted fields fall back to the configured defaults.
type BulkSpec struct {
	Prefix string `yaml:"prefix,omitempty"`
	Count  *int   `yaml:"count,omitempty"`
}

// SweepRule describes one best-effort mutation pass: every child of every
// container whose name matches Pattern gets the Set attributes applied.
type SweepRule struct {
	Container string         `yaml:"container"`
	Child     string         `yaml:"child"`
	Pattern   string         `yaml:"pattern,omitempty"`
	Set       map[string]any `yaml:"set"`
}

// Loader loads suite definition files.
type Loader interface {
	LoadFile(path string) (*Suite, error)
	LoadDir(dir string) ([]*Suite, error)
}

type loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a new suite definition loader.
func NewLoader(log logrus.FieldLogger) Loader {
	return &loader{
		log: log.WithField("component", "suite_loader"),
	}
}

// LoadFile reads, parses, and validates a single suite file.
func (l *loader) LoadFile(path string) (*Suite, error) {
	l.log.WithField("path", path).Debug("loading suite definition")

	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading suite definitions from trusted paths
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}

	if err := l.validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	return &suite, nil
}

// LoadDir loads every .yaml suite in a directory, skipping files that do
// not validate.
func (l *loader) LoadDir(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	suites := make([]*Suite, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		suite, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			l.log.WithError(err).WithField("file", entry.Name()).Warn("skipping invalid suite")
			continue
		}

		suites = append(suites, suite)
	}

	return suites, nil
}

func (l *loader) validateSuite(suite *Suite) error {
	if suite.Name == "" {
		return errSuiteMissingName
	}

	if len(suite.Scenarios) == 0 && len(suite.Sweeps) == 0 {
		return errSuiteEmpty
	}

	for i, scenario := range suite.Scenarios {
		if scenario.Name == "" {
			return fmt.Errorf("%w at index %d", errScenarioMissingName, i)
		}

		hasSingle := scenario.Single != nil
		hasBulk := scenario.Bulk != nil
		if hasSingle == hasBulk {
			return fmt.Errorf("%w: %s", errScenarioMissingMode, scenario.Name)
		}

		if hasBulk && scenario.Bulk.Count != nil && *scenario.Bulk.Count < 0 {
			return fmt.Errorf("%w: %s has count %d", errBulkNegativeCount, scenario.Name, *scenario.Bulk.Count)
		}
	}

	for i, rule := range suite.Sweeps {
		if rule.Container == "" {
			return fmt.Errorf("%w at index %d", errSweepMissingContainer, i)
		}
		if rule.Child == "" {
			return fmt.Errorf("%w at index %d", errSweepMissingChild, i)
		}
		if len(rule.Set) == 0 {
			return fmt.Errorf("%w at index %d", errSweepMissingUpdates, i)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%w: %q at index %d: %v", errSweepInvalidPattern, rule.Pattern, i, err)
		}
	}

	return nil
}
