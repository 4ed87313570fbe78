package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// RuntimeFlags holds the settings that may change while the process runs
type RuntimeFlags struct {
	useRITree atomic.Bool
}

// NewRuntimeFlags seeds the flags from static configuration
func NewRuntimeFlags(cfg *Config) *RuntimeFlags {
	f := &RuntimeFlags{}
	f.useRITree.Store(cfg.UseRITree)
	return f
}

// UseRITree reports whether the bitmask strategy is selected
func (f *RuntimeFlags) UseRITree() bool {
	return f.useRITree.Load()
}

// SetUseRITree switches the query strategy
func (f *RuntimeFlags) SetUseRITree(v bool) {
	f.useRITree.Store(v)
}

// Apply copies a loaded runtime file into the flags
func (f *RuntimeFlags) Apply(rf *RuntimeFile) {
	if rf.UseRITree != nil {
		f.SetUseRITree(*rf.UseRITree)
	}
}

// RuntimeFile is the document the watcher reloads. Absent keys leave the
// current value alone.
type RuntimeFile struct {
	UseRITree *bool `yaml:"use_ri_tree"`
}

// LoadRuntimeFile parses a runtime flags file
func LoadRuntimeFile(path string) (*RuntimeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime file: %w", err)
	}
	var rf RuntimeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse runtime file: %w", err)
	}
	return &rf, nil
}
