package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownField = errors.New("config: unknown field")

// Set assigns value to the dotted yaml path, for example
// "vehicle.suspension.spring.max_force" or "vehicle.wheels.0.radius".
// The value is parsed the way yaml would parse it in a file.
func (c *Config) Set(path, value string) error {
	var root yaml.Node
	if err := root.Encode(c); err != nil {
		return err
	}
	n, err := lookup(&root, path)
	inserted := false
	if errors.Is(err, ErrUnknownField) {
		// omitempty fields are missing from the encoding
		n, err = insert(&root, path)
		inserted = true
	}
	if err != nil {
		return err
	}
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: %s is not a scalar", ErrUnknownField, path)
	}
	n.Value = value
	n.Tag = ""
	n.Style = 0

	next := &Config{}
	if err := root.Decode(next); err != nil {
		return fmt.Errorf("config: set %s=%s: %w", path, value, err)
	}
	// a key yaml did not know decodes to nothing and stays missing
	if _, err := next.Get(path); inserted && err != nil && !isZero(value) {
		return err
	}
	*c = *next
	return nil
}

func isZero(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return (err == nil && f == 0) || v == "" || v == "false"
}

// insert adds a scalar for the last path element to its parent mapping.
func insert(root *yaml.Node, path string) (*yaml.Node, error) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	parent, err := lookup(root, path[:i])
	if err != nil {
		return nil, err
	}
	if parent.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	key := &yaml.Node{Kind: yaml.ScalarNode, Value: path[i+1:]}
	val := &yaml.Node{Kind: yaml.ScalarNode}
	parent.Content = append(parent.Content, key, val)
	return val, nil
}

// Get returns the yaml text of the value at path.
func (c *Config) Get(path string) (string, error) {
	var root yaml.Node
	if err := root.Encode(c); err != nil {
		return "", err
	}
	n, err := lookup(&root, path)
	if err != nil {
		return "", err
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}
	out, err := yaml.Marshal(n)
	return strings.TrimSpace(string(out)), err
}

// SetFloat is Set for numeric sweeps.
func (c *Config) SetFloat(path string, v float64) error {
	return c.Set(path, strconv.FormatFloat(v, 'g', -1, 64))
}

func lookup(root *yaml.Node, path string) (*yaml.Node, error) {
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range strings.Split(path, ".") {
		switch n.Kind {
		case yaml.MappingNode:
			var found *yaml.Node
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == key {
					found = n.Content[i+1]
					break
				}
			}
			if found == nil {
				return nil, fmt.Errorf("%w: %s (at %q)", ErrUnknownField, path, key)
			}
			n = found
		case yaml.SequenceNode:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(n.Content) {
				return nil, fmt.Errorf("%w: %s (index %q)", ErrUnknownField, path, key)
			}
			n = n.Content[i]
		default:
			return nil, fmt.Errorf("%w: %s (%q is below a scalar)", ErrUnknownField, path, key)
		}
	}
	return n, nil
}
