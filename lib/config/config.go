/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads and validates the declarative run document: which
// hosts to provision and which packages to install on each.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gravitational/trace"
	"gopkg.in/yaml.v2"

	"github.com/nodestack/nodestack/lib/utils"
)

const (
	// DefaultMaxConcurrentNodes is used when general.max_concurrent_nodes is unset
	DefaultMaxConcurrentNodes = 10
	// MaxConcurrentNodesCap is the upper bound accepted for general.max_concurrent_nodes
	MaxConcurrentNodesCap = 10
	// DefaultSuperUser is used when a node does not declare super_user
	DefaultSuperUser = "root"
	// DefaultPort is used when a node does not declare a port
	DefaultPort = 22
	// DefaultLogLevel is used when log.level is unset
	DefaultLogLevel = "INFO"

	// SourceRepository installs a package via the host's package manager
	SourceRepository = "repository"
	// SourceURL downloads an install artifact from a URL
	SourceURL = "url"
	// SourceLocal copies an install artifact from a path already on the target
	SourceLocal = "local"
)

// Credentials is a user/secret pair used to authenticate an SSH connection.
// At least one of Password or KeyPath must be set.
type Credentials struct {
	User     string `yaml:"user"`
	Password string `yaml:"pass,omitempty"`
	KeyPath  string `yaml:"key,omitempty"`
}

// CheckAndSetDefaults validates the credential bundle
func (c *Credentials) CheckAndSetDefaults(field string) error {
	if c.User == "" {
		return trace.BadParameter("%v: user is required", field)
	}
	if c.Password == "" && c.KeyPath == "" {
		return trace.BadParameter("%v: one of pass or key is required", field)
	}
	if c.KeyPath == "" {
		return nil
	}
	info, err := os.Stat(c.KeyPath)
	if err != nil {
		return trace.BadParameter("%v: key %q: %v", field, c.KeyPath, err)
	}
	if info.Mode().Perm()&0077 != 0 {
		return trace.BadParameter("%v: key %q must not be readable by group/other (mode %04o)",
			field, c.KeyPath, info.Mode().Perm())
	}
	return nil
}

// PackageSpec describes a single software package to install on a host
type PackageSpec struct {
	// Name identifies the installer to use, e.g. "java"
	Name string
	// Version is validated by the resolved installer
	Version string `yaml:"version"`
	// InstallPath is the absolute target path on the remote host
	InstallPath string `yaml:"install_path"`
	// Source is one of repository|url|local
	Source string `yaml:"source"`
	// SourcePath is the URL or local path the artifact is fetched from;
	// required when Source != SourceRepository
	SourcePath string `yaml:"source_path,omitempty"`
	// Config is a free-form, installer-specific settings map. Installers parse
	// the keys they recognize into a typed struct; anything left over is
	// reported as a warning rather than rejected.
	Config map[string]interface{} `yaml:"config,omitempty"`
}

// CheckAndSetDefaults validates the package spec and fills in defaults
func (p *PackageSpec) CheckAndSetDefaults() error {
	if p.Name == "" {
		return trace.BadParameter("package name is required")
	}
	if p.Version == "" {
		return trace.BadParameter("%v: version is required", p.Name)
	}
	if !strings.HasPrefix(p.InstallPath, "/") {
		return trace.BadParameter("%v: install_path must be an absolute path, got %q", p.Name, p.InstallPath)
	}
	if p.Source == "" {
		p.Source = SourceRepository
	}
	switch p.Source {
	case SourceRepository, SourceURL, SourceLocal:
	default:
		return trace.BadParameter("%v: unrecognized source %q", p.Name, p.Source)
	}
	if p.Source != SourceRepository && p.SourcePath == "" {
		return trace.BadParameter("%v: source_path is required when source is %q", p.Name, p.Source)
	}
	if p.Source == SourceURL && !utils.HasOneOfPrefixes(p.SourcePath, "http://", "https://") {
		return trace.BadParameter("%v: source_path must be an http(s) URL, got %q", p.Name, p.SourcePath)
	}
	return nil
}

// packageEntry unmarshals a single `- <name>: {fields...}` YAML list entry
type packageEntry struct {
	PackageSpec `yaml:",inline"`
}

// UnmarshalYAML implements the single-key-map convention used for install entries
func (p *packageEntry) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]PackageSpec
	if err := unmarshal(&raw); err != nil {
		return trace.Wrap(err)
	}
	if len(raw) != 1 {
		return trace.BadParameter("expected a single-key package entry, got %v keys", len(raw))
	}
	for name, spec := range raw {
		spec.Name = name
		p.PackageSpec = spec
	}
	return nil
}

// HostSpec describes a single target host and the packages to install on it
type HostSpec struct {
	// Name uniquely identifies the host within a run
	Name string
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	OwnerUser string `yaml:"owner_user"`
	OwnerPass string `yaml:"owner_pass,omitempty"`
	OwnerKey  string `yaml:"owner_key,omitempty"`

	SuperUser string `yaml:"super_user,omitempty"`
	SuperPass string `yaml:"super_pass,omitempty"`
	SuperKey  string `yaml:"super_key,omitempty"`

	Install []PackageSpec `yaml:"install"`
}

// Owner returns the host's ordinary-user credential bundle
func (h HostSpec) Owner() Credentials {
	return Credentials{User: h.OwnerUser, Password: h.OwnerPass, KeyPath: h.OwnerKey}
}

// Super returns the host's privilege-escalation credential bundle
func (h HostSpec) Super() Credentials {
	return Credentials{User: h.SuperUser, Password: h.SuperPass, KeyPath: h.SuperKey}
}

// Addr returns the host:port dial address
func (h HostSpec) Addr() string {
	return fmt.Sprintf("%v:%v", h.Host, h.Port)
}

// CheckAndSetDefaults validates the host spec and fills in defaults
func (h *HostSpec) CheckAndSetDefaults() error {
	if h.Name == "" {
		return trace.BadParameter("node name is required")
	}
	if h.Host == "" {
		return trace.BadParameter("%v: host is required", h.Name)
	}
	if net.ParseIP(h.Host) == nil {
		// not an IP; accept as a resolvable hostname, validated at dial time
		if strings.ContainsAny(h.Host, " \t/\\") {
			return trace.BadParameter("%v: invalid host %q", h.Name, h.Host)
		}
	}
	if h.Port == 0 {
		h.Port = DefaultPort
	}
	if h.Port < 1 || h.Port > 65535 {
		return trace.BadParameter("%v: port must be in [1, 65535], got %v", h.Name, h.Port)
	}
	if h.SuperUser == "" {
		h.SuperUser = DefaultSuperUser
	}
	owner := h.Owner()
	if err := owner.CheckAndSetDefaults(fmt.Sprintf("%v: owner credentials", h.Name)); err != nil {
		return trace.Wrap(err)
	}
	if h.SuperPass != "" || h.SuperKey != "" {
		super := h.Super()
		if err := super.CheckAndSetDefaults(fmt.Sprintf("%v: super credentials", h.Name)); err != nil {
			return trace.Wrap(err)
		}
	}
	for i := range h.Install {
		if err := h.Install[i].CheckAndSetDefaults(); err != nil {
			return trace.Wrap(err, "%v", h.Name)
		}
	}
	return nil
}

// hostEntry unmarshals a single `- <name>: {fields...}` YAML list entry
type hostEntry struct {
	HostSpec `yaml:",inline"`
}

// UnmarshalYAML implements the single-key-map convention used for node entries
func (h *hostEntry) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]rawHostSpec
	if err := unmarshal(&raw); err != nil {
		return trace.Wrap(err)
	}
	if len(raw) != 1 {
		return trace.BadParameter("expected a single-key node entry, got %v keys", len(raw))
	}
	for name, spec := range raw {
		h.HostSpec = spec.toHostSpec(name)
	}
	return nil
}

// rawHostSpec mirrors HostSpec but with a typed Install list able to consume
// the `- <pkg_name>: {...}` convention
type rawHostSpec struct {
	Host      string         `yaml:"host"`
	Port      int            `yaml:"port"`
	OwnerUser string         `yaml:"owner_user"`
	OwnerPass string         `yaml:"owner_pass"`
	OwnerKey  string         `yaml:"owner_key"`
	SuperUser string         `yaml:"super_user"`
	SuperPass string         `yaml:"super_pass"`
	SuperKey  string         `yaml:"super_key"`
	Install   []packageEntry `yaml:"install"`
}

func (r rawHostSpec) toHostSpec(name string) HostSpec {
	install := make([]PackageSpec, len(r.Install))
	for i, p := range r.Install {
		install[i] = p.PackageSpec
	}
	return HostSpec{
		Name:      name,
		Host:      r.Host,
		Port:      r.Port,
		OwnerUser: r.OwnerUser,
		OwnerPass: r.OwnerPass,
		OwnerKey:  r.OwnerKey,
		SuperUser: r.SuperUser,
		SuperPass: r.SuperPass,
		SuperKey:  r.SuperKey,
		Install:   install,
	}
}

// GeneralConfig holds the `general` document section
type GeneralConfig struct {
	DataDir            string `yaml:"data_dir"`
	MaxConcurrentNodes int    `yaml:"max_concurrent_nodes"`
}

// LogConfig holds the `log` document section
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Config is the parsed, validated declarative run document
type Config struct {
	General GeneralConfig `yaml:"general"`
	Log     LogConfig     `yaml:"log"`
	Nodes   []HostSpec    `yaml:"-"`
}

// document mirrors the YAML document shape before nodes are unwrapped
// from their single-key-map entries
type document struct {
	General GeneralConfig `yaml:"general"`
	Log     LogConfig     `yaml:"log"`
	Nodes   []hostEntry   `yaml:"nodes"`
}

// ParseConfig parses and validates the configuration document given as raw bytes
func ParseConfig(data []byte) (*Config, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, trace.BadParameter("invalid configuration: %v", err)
	}
	nodes := make([]HostSpec, len(doc.Nodes))
	for i, entry := range doc.Nodes {
		nodes[i] = entry.HostSpec
	}
	config := &Config{
		General: doc.General,
		Log:     doc.Log,
		Nodes:   nodes,
	}
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return config, nil
}

// ReadConfig reads and parses the configuration document at the given path
func ReadConfig(path string) (*Config, error) {
	data, err := utils.ReadPath(path)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return config, nil
}

// CheckAndSetDefaults validates the whole document, collecting every error
// found rather than stopping at the first one, and fills in defaults.
// Any error aborts the run before any remote I/O is attempted.
func (c *Config) CheckAndSetDefaults() error {
	var errs []error

	if c.General.DataDir == "" {
		errs = append(errs, trace.BadParameter("general.data_dir is required"))
	}
	if c.General.MaxConcurrentNodes == 0 {
		c.General.MaxConcurrentNodes = DefaultMaxConcurrentNodes
	}
	if c.General.MaxConcurrentNodes < 1 || c.General.MaxConcurrentNodes > MaxConcurrentNodesCap {
		errs = append(errs, trace.BadParameter(
			"general.max_concurrent_nodes must be in [1, %v], got %v",
			MaxConcurrentNodesCap, c.General.MaxConcurrentNodes))
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
		c.Log.Level = strings.ToUpper(c.Log.Level)
	default:
		errs = append(errs, trace.BadParameter("log.level must be one of DEBUG|INFO|WARN|ERROR, got %q", c.Log.Level))
	}

	if len(c.Nodes) == 0 {
		errs = append(errs, trace.BadParameter("nodes: at least one node is required"))
	}
	seen := make(map[string]bool, len(c.Nodes))
	for i := range c.Nodes {
		if seen[c.Nodes[i].Name] {
			errs = append(errs, trace.BadParameter("node name %q is not unique", c.Nodes[i].Name))
			continue
		}
		seen[c.Nodes[i].Name] = true
		if err := c.Nodes[i].CheckAndSetDefaults(); err != nil {
			errs = append(errs, err)
		}
	}

	return trace.NewAggregate(errs...)
}

// FilterNodes returns a copy of the config with Nodes restricted to the
// named subset (in config order); an empty names list is a no-op.
func (c *Config) FilterNodes(names []string) *Config {
	if len(names) == 0 {
		return c
	}
	want := utils.NewStringSetFromSlice(names)
	filtered := *c
	filtered.Nodes = nil
	for _, node := range c.Nodes {
		if want.Has(node.Name) {
			filtered.Nodes = append(filtered.Nodes, node)
		}
	}
	return &filtered
}

// FilterPackages returns a copy of the config with each node's Install list
// restricted to the named subset (in declared order); an empty names list
// is a no-op.
func (c *Config) FilterPackages(names []string) *Config {
	if len(names) == 0 {
		return c
	}
	want := utils.NewStringSetFromSlice(names)
	filtered := *c
	filtered.Nodes = make([]HostSpec, len(c.Nodes))
	for i, node := range c.Nodes {
		filtered.Nodes[i] = node
		filtered.Nodes[i].Install = nil
		for _, pkg := range node.Install {
			if want.Has(pkg.Name) {
				filtered.Nodes[i].Install = append(filtered.Nodes[i].Install, pkg)
			}
		}
	}
	return &filtered
}

// Template is the YAML template printed by `run generate-config`
const Template = `general:
  data_dir: /var/lib/nodestack
  max_concurrent_nodes: 10
log:
  level: INFO
  dir: /var/lib/nodestack/log
nodes:
  - node1:
      host: 192.0.2.10
      port: 22
      owner_user: ubuntu
      owner_key: /home/ubuntu/.ssh/id_rsa
      super_user: root
      install:
        - java:
            version: "11"
            install_path: /opt/java
            source: repository
        - zookeeper:
            version: "3.8"
            install_path: /opt/zookeeper
            source: url
            source_path: https://example.com/zookeeper-3.8.tar.gz
            config:
              tickTime: "2000"
              dataDir: /var/lib/zookeeper
              clientPort: "2181"
`
