// Package rulesets manages named scoring profiles so weights and bands can be
// recalibrated without a redeploy. A registry file carries one or more
// complete scoring configurations; the active profile is chosen by name.
package rulesets

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/scoring"
)

// DefaultProfile is the profile name used when none is configured.
const DefaultProfile = "default"

type registryFile struct {
	Version  int                        `json:"version"`
	Profiles map[string]json.RawMessage `json:"profiles"`
}

// Registry holds the validated scoring profiles from one ruleset file.
type Registry struct {
	profiles map[string]*scoring.Config
	log      logger.Logger
}

// Load reads and validates a ruleset file. Every profile must pass both the
// structural schema and the scoring configuration's own semantic checks; a
// registry with any invalid profile is rejected whole.
func Load(path string, log logger.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stderrors.NewConfigurationError(fmt.Sprintf("read ruleset file %s: %s", path, err))
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, stderrors.NewConfigurationError(fmt.Sprintf("validate ruleset file %s: %s", path, err))
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, stderrors.NewConfigurationError(
			fmt.Sprintf("ruleset file %s failed schema validation: %s", path, strings.Join(problems, "; ")))
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, stderrors.NewConfigurationError(fmt.Sprintf("decode ruleset file %s: %s", path, err))
	}

	profiles := make(map[string]*scoring.Config, len(file.Profiles))
	for name, raw := range file.Profiles {
		// Profiles override the defaults field by field; an omitted section
		// keeps its default rules.
		cfg := scoring.DefaultConfig()
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, stderrors.NewConfigurationError(fmt.Sprintf("decode profile %q: %s", name, err))
		}
		if err := cfg.Validate(); err != nil {
			return nil, stderrors.NewConfigurationError(fmt.Sprintf("profile %q: %s", name, err))
		}
		profiles[name] = cfg
	}

	log.Info("Loaded scoring rulesets", map[string]interface{}{
		"path":     path,
		"version":  file.Version,
		"profiles": len(profiles),
	})
	return &Registry{profiles: profiles, log: log}, nil
}

// Profile returns the named scoring configuration.
func (r *Registry) Profile(name string) (*scoring.Config, error) {
	if name == "" {
		name = DefaultProfile
	}
	cfg, ok := r.profiles[name]
	if !ok {
		return nil, stderrors.NewConfigurationError(
			fmt.Sprintf("unknown scoring profile %q (available: %s)", name, strings.Join(r.Names(), ", ")))
	}
	return cfg, nil
}

// Names lists the available profiles in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the active scoring configuration: the configured profile from
// the registry file when one is set, the built-in defaults otherwise.
func Resolve(path, profile string, log logger.Logger) (*scoring.Config, error) {
	if path == "" {
		return scoring.DefaultConfig(), nil
	}
	reg, err := Load(path, log)
	if err != nil {
		return nil, err
	}
	return reg.Profile(profile)
}
