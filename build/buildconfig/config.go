// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package buildconfig provides build scope config for modscan.
//
// Build scopes are described in a TOML file (modscan.toml), or
// a YAML file with the same schema.
//
//	cache_dir = "out/modscan"
//
//	[[scope]]
//	name = "app"
//	compiler = "/usr/bin/clang++"
//	sources = ["src/hello.cppm", "src/main.cc"]
//	include_dirs = ["include"]
//	deps = ["base"]
//	package_include_dirs = ["third_party/fmt/include"]
//	flags = ["-std=c++20"]
package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the default config filename.
const DefaultFilename = "modscan.toml"

// DefaultCacheDir is the default cache dir relative to the config dir.
const DefaultCacheDir = "out/modscan"

var (
	// ErrUnknownScope is an error when scope is not defined in config.
	ErrUnknownScope = errors.New("unknown scope")

	// ErrScopeCycle is an error when scope deps have a cycle.
	ErrScopeCycle = errors.New("scope dependency cycle")
)

// file is a schema of config file.
type file struct {
	CacheDir string        `toml:"cache_dir" yaml:"cache_dir"`
	Scopes   []scopeConfig `toml:"scope" yaml:"scope"`
}

type scopeConfig struct {
	Name               string   `toml:"name" yaml:"name"`
	Compiler           string   `toml:"compiler" yaml:"compiler"`
	Sources            []string `toml:"sources" yaml:"sources"`
	IncludeDirs        []string `toml:"include_dirs" yaml:"include_dirs"`
	Deps               []string `toml:"deps" yaml:"deps"`
	PackageIncludeDirs []string `toml:"package_include_dirs" yaml:"package_include_dirs"`
	SystemIncludeDirs  []string `toml:"system_include_dirs" yaml:"system_include_dirs"`
	Flags              []string `toml:"flags" yaml:"flags"`
	FallbackScan       bool     `toml:"fallback_scan" yaml:"fallback_scan"`
}

// Config is a build scope config.
type Config struct {
	// root is the dir of the config file.
	// relative paths in config are relative to root.
	root     string
	cacheDir string

	scopes []*Scope
	byName map[string]*Scope
}

// Load loads config from fname.
func Load(fname string) (*Config, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var f file
	switch ext := filepath.Ext(fname); ext {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(buf)).Decode(&f)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", fname, err)
		}
		for _, key := range md.Undecoded() {
			log.Warnf("%s: unknown key %s", fname, key)
		}
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(buf))
		d.KnownFields(true)
		err := d.Decode(&f)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", fname, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format %q", fname, ext)
	}
	root, err := filepath.Abs(filepath.Dir(fname))
	if err != nil {
		return nil, err
	}
	cfg, err := newConfig(root, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	log.Infof("config %s: root=%s cache_dir=%s scopes=%d", fname, cfg.root, cfg.cacheDir, len(cfg.scopes))
	return cfg, nil
}

func newConfig(root string, f file) (*Config, error) {
	cfg := &Config{
		root:     root,
		cacheDir: f.CacheDir,
		byName:   make(map[string]*Scope),
	}
	if cfg.cacheDir == "" {
		cfg.cacheDir = DefaultCacheDir
	}
	if !filepath.IsAbs(cfg.cacheDir) {
		cfg.cacheDir = filepath.Join(root, cfg.cacheDir)
	}
	for i, sc := range f.Scopes {
		if sc.Name == "" {
			return nil, fmt.Errorf("scope[%d]: no name", i)
		}
		if strings.ContainsAny(sc.Name, `/\:`) {
			return nil, fmt.Errorf("scope[%d]: bad name %q", i, sc.Name)
		}
		if _, ok := cfg.byName[sc.Name]; ok {
			return nil, fmt.Errorf("scope[%d]: duplicate name %q", i, sc.Name)
		}
		s := &Scope{cfg: cfg, c: sc}
		cfg.scopes = append(cfg.scopes, s)
		cfg.byName[sc.Name] = s
	}
	for _, s := range cfg.scopes {
		deps, err := cfg.resolveDeps(s)
		if err != nil {
			return nil, err
		}
		s.deps = deps
	}
	return cfg, nil
}

// resolveDeps returns transitive deps of s, nearest first.
func (cfg *Config) resolveDeps(s *Scope) ([]*Scope, error) {
	var deps []*Scope
	seen := make(map[*Scope]bool)
	var visit func(s *Scope, chain []string) error
	visit = func(s *Scope, chain []string) error {
		for _, name := range s.c.Deps {
			dep, ok := cfg.byName[name]
			if !ok {
				return fmt.Errorf("scope %s: dep %q: %w", s.Name(), name, ErrUnknownScope)
			}
			for _, c := range chain {
				if c == name {
					return fmt.Errorf("%w: %s -> %s", ErrScopeCycle, strings.Join(chain, " -> "), name)
				}
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
			err := visit(dep, append(chain, name))
			if err != nil {
				return err
			}
		}
		return nil
	}
	err := visit(s, []string{s.Name()})
	return deps, err
}

// Root returns the root dir of the config.
func (cfg *Config) Root() string { return cfg.root }

// CacheDir returns the cache dir.
func (cfg *Config) CacheDir() string { return cfg.cacheDir }

// Scopes returns all scopes in config order.
func (cfg *Config) Scopes() []*Scope { return cfg.scopes }

// Scope returns the scope of the name.
func (cfg *Config) Scope(name string) (*Scope, error) {
	s, ok := cfg.byName[name]
	if !ok {
		if c := cfg.spellcheck(name); c != "" {
			return nil, fmt.Errorf("%w: %q, did you mean %q?", ErrUnknownScope, name, c)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, name)
	}
	return s, nil
}

// spellcheck returns the most similar scope name to name, or empty
// if no scope name is similar enough.
func (cfg *Config) spellcheck(name string) string {
	const maxValidEditDistance = 3
	var best string
	bestDistance := maxValidEditDistance + 1
	for _, s := range cfg.scopes {
		d := editDistance(s.Name(), name, maxValidEditDistance)
		if d < bestDistance {
			best = s.Name()
			bestDistance = d
		}
	}
	return best
}

// Select returns scopes of the names in the given order, or all scopes
// if names is empty.
func (cfg *Config) Select(names []string) ([]*Scope, error) {
	if len(names) == 0 {
		return cfg.Scopes(), nil
	}
	var scopes []*Scope
	for _, name := range names {
		s, err := cfg.Scope(name)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, nil
}
