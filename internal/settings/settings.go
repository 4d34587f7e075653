// Package settings loads game defaults and named presets from HCL.
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/samber/lo"

	"numberbaseball/internal/baseball"
)

//go:embed default.hcl
var builtin []byte

// ErrUnknownPreset is returned by Preset for names that were never defined.
var ErrUnknownPreset = errors.New("unknown preset")

// fileConfig is the top level of a settings file.
type fileConfig struct {
	Defaults *attributes   `hcl:"defaults,block"`
	Presets  []presetBlock `hcl:"preset,block"`
}

type presetBlock struct {
	Name        string   `hcl:"name,label"`
	Description *string  `hcl:"description,optional"`
	Remain      hcl.Body `hcl:",remain"`
}

// attributes are all optional; unset ones inherit.
type attributes struct {
	SequenceLength    *int  `hcl:"sequence_length,optional"`
	AllowDuplicates   *bool `hcl:"allow_duplicates,optional"`
	MaxAttempts       *int  `hcl:"max_attempts,optional"`
	UnlimitedAttempts *bool `hcl:"unlimited_attempts,optional"`
	TimeLimitSeconds  *int  `hcl:"time_limit_seconds,optional"`
	UnlimitedTime     *bool `hcl:"unlimited_time,optional"`
}

func (a attributes) over(base baseball.Candidate) baseball.Candidate {
	c := base
	if a.SequenceLength != nil {
		c.SequenceLength = *a.SequenceLength
	}
	if a.AllowDuplicates != nil {
		c.AllowDuplicates = *a.AllowDuplicates
	}
	if a.MaxAttempts != nil {
		c.MaxAttempts = *a.MaxAttempts
	}
	if a.UnlimitedAttempts != nil {
		c.UnlimitedAttempts = *a.UnlimitedAttempts
	}
	if a.TimeLimitSeconds != nil {
		c.TimeLimitSeconds = *a.TimeLimitSeconds
	}
	if a.UnlimitedTime != nil {
		c.UnlimitedTime = *a.UnlimitedTime
	}
	return c
}

// Preset is a named, already validated configuration.
type Preset struct {
	Name        string
	Description string
	Config      baseball.Config
}

// Settings holds the default candidate and the presets known to the game.
type Settings struct {
	defaults baseball.Config
	presets  map[string]Preset
}

// Default returns the built-in settings.
func Default() *Settings {
	s, err := Parse(builtin, "default.hcl")
	if err != nil {
		panic(fmt.Sprintf("settings: built-in defaults: %v", err))
	}
	return s
}

// Load reads settings from path, layered over the built-in ones. A missing
// file is not an error.
func Load(path string) (*Settings, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return parseOver(Default(), src, path)
}

// Parse decodes a settings file on its own, starting from the game defaults.
func Parse(src []byte, filename string) (*Settings, error) {
	base := &Settings{
		defaults: baseball.DefaultConfig(),
		presets:  map[string]Preset{},
	}
	return parseOver(base, src, filename)
}

func parseOver(base *Settings, src []byte, filename string) (*Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	out := &Settings{
		defaults: base.defaults,
		presets:  make(map[string]Preset, len(base.presets)+len(fc.Presets)),
	}
	for name, p := range base.presets {
		out.presets[name] = p
	}

	if fc.Defaults != nil {
		cfg, err := baseball.Validate(fc.Defaults.over(base.defaults.Candidate()))
		if err != nil {
			return nil, fmt.Errorf("%s: defaults: %w", filename, err)
		}
		out.defaults = cfg
	}

	seen := map[string]bool{}
	for _, pb := range fc.Presets {
		if seen[pb.Name] {
			return nil, fmt.Errorf("%s: preset %q defined twice", filename, pb.Name)
		}
		seen[pb.Name] = true

		var attrs attributes
		if diags := gohcl.DecodeBody(pb.Remain, nil, &attrs); diags.HasErrors() {
			return nil, fmt.Errorf("%s: preset %q: %s", filename, pb.Name, diags.Error())
		}
		cfg, err := baseball.Validate(attrs.over(out.defaults.Candidate()))
		if err != nil {
			return nil, fmt.Errorf("%s: preset %q: %w", filename, pb.Name, err)
		}
		out.presets[pb.Name] = Preset{
			Name:        pb.Name,
			Description: lo.FromPtr(pb.Description),
			Config:      cfg,
		}
	}
	return out, nil
}

// Defaults returns the configuration a new session starts with.
func (s *Settings) Defaults() baseball.Config {
	return s.defaults
}

// Preset looks a preset up by name.
func (s *Settings) Preset(name string) (Preset, error) {
	p, ok := s.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Presets returns every preset sorted by name.
func (s *Settings) Presets() []Preset {
	names := lo.Keys(s.presets)
	slices.Sort(names)
	return lo.Map(names, func(n string, _ int) Preset { return s.presets[n] })
}
