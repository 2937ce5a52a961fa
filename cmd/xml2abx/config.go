package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig holds defaults loaded from a --config YAML file.
// Nil fields were absent from the file.
type fileConfig struct {
	CollapseWhitespace *bool `yaml:"collapse_whitespace"`
	ResolveEntities    *bool `yaml:"resolve_entities"`
	Strict             *bool `yaml:"strict"`
	MaxDepth           *int  `yaml:"max_depth"`
	Quiet              *bool `yaml:"quiet"`
	Verbose            *bool `yaml:"verbose"`
	Force              *bool `yaml:"force"`
}

func loadConfig(path string) (fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// apply copies file values into flag targets the command line left unset.
func (c fileConfig) apply(fs *flag.FlagSet, f *cliFlags) {
	explicit := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		explicit[fl.Name] = true
	})
	setBool := func(dst *bool, src *bool, names ...string) {
		if src == nil {
			return
		}
		for _, name := range names {
			if explicit[name] {
				return
			}
		}
		*dst = *src
	}
	setBool(&f.collapse, c.CollapseWhitespace, "collapse-whitespace")
	setBool(&f.resolveEntities, c.ResolveEntities, "resolve-entities")
	setBool(&f.strict, c.Strict, "strict")
	setBool(&f.quiet, c.Quiet, "q", "quiet")
	setBool(&f.verbose, c.Verbose, "v", "verbose")
	setBool(&f.force, c.Force, "force")
	if c.MaxDepth != nil && !explicit["max-depth"] {
		f.maxDepth = *c.MaxDepth
	}
}
