package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// orderIndex remembers YAML mapping key order for the parts of the
// document where order is semantic (the package tree). Keys are dotted
// paths such as "packages" or "packages.core.children".
type orderIndex struct {
	keys map[string][]string
}

// keysOf returns the recorded document order for path, or the fallback
// (sorted) order when the configuration was built from a plain map.
func (o *orderIndex) keysOf(path string, fallback []string) []string {
	if o == nil {
		return fallback
	}
	if keys, ok := o.keys[path]; ok {
		return keys
	}
	return fallback
}

func indexFromNode(root *yaml.Node) *orderIndex {
	idx := &orderIndex{keys: make(map[string][]string)}
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if pkgs := mappingValue(doc, "packages"); pkgs != nil {
		idx.record("packages", pkgs)
	}
	return idx
}

// record stores the key order of a package mapping and recurses into
// each package's children.
func (o *orderIndex) record(path string, mapping *yaml.Node) {
	if mapping.Kind != yaml.MappingNode {
		return
	}
	var names []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		names = append(names, name)
		if children := mappingValue(mapping.Content[i+1], "children"); children != nil {
			o.record(path+"."+name+".children", children)
		}
	}
	o.keys[path] = names
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// Load reads and parses a YAML package description. The package tree
// keeps the order it has in the document.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	cfg.dir = dir
	return cfg, nil
}

// Parse builds a configuration from raw YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	var data map[string]any
	if err := node.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	cfg := build(data, indexFromNode(&node))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the generator cannot sensibly default.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.App.Version == "" {
		return fmt.Errorf("app.version is required")
	}
	switch c.Install.ExistingInstall.Mode {
	case ModePromptUninstall, ModeAutoUninstall, ModeOverwrite, ModeAbort, ModeNone:
	default:
		return fmt.Errorf("existing_install.mode %q is not one of prompt_uninstall, auto_uninstall, overwrite, abort, none",
			c.Install.ExistingInstall.Mode)
	}
	switch c.Install.RegistryView {
	case "auto", "32", "64":
	default:
		return fmt.Errorf("install.registry_view %q is not one of auto, 32, 64", c.Install.RegistryView)
	}
	for _, entry := range c.Install.RegistryEntries {
		switch entry.Type {
		case "string", "expand", "dword":
		default:
			return fmt.Errorf("registry entry %s\\%s: type %q is not one of string, expand, dword",
				entry.Key, entry.Name, entry.Type)
		}
	}
	return nil
}
