package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Marshal renders cfg as commented YAML. Durations are written the way a
// person would type them ("10m", "500ms") rather than as nanoseconds.
func Marshal(cfg *Config) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	addInt(root, "version", cfg.Version, "")
	addString(root, "callsign", cfg.Callsign, "Your callsign, sent at the RBN login prompt.")

	rbn := addMapping(root, "rbn", "Reverse Beacon Network telnet server.")
	addString(rbn, "addr", cfg.RBN.Addr, "")
	addDuration(rbn, "dial_timeout", cfg.RBN.DialTimeout, "")
	addDuration(rbn, "read_timeout", cfg.RBN.ReadTimeout, "")
	addDuration(rbn, "login_timeout", cfg.RBN.LoginTimeout, "")
	addInt(rbn, "event_buffer", cfg.RBN.EventBuffer, "Spots beyond this many unprocessed are dropped.")

	spots := addMapping(root, "spots", "Aggregation and filtering.")
	addDuration(spots, "max_age", cfg.Spots.MaxAge, "")
	addInt(spots, "min_snr", cfg.Spots.MinSNR, "")
	addString(spots, "sort", cfg.Spots.Sort, "frequency or recency")
	addDuration(spots, "purge_interval", cfg.Spots.PurgeInterval, "")

	disp := addMapping(root, "display", "20x2 VFD on a serial port (9600 8N1). Leave port empty to run without one.")
	addString(disp, "port", cfg.Display.Port, "")
	addDuration(disp, "scroll_interval", cfg.Display.ScrollInterval, "")
	addBool(disp, "force_idle", cfg.Display.ForceIdle, "")
	addDuration(disp, "refresh_interval", cfg.Display.RefreshInterval, "")
	addInt64(disp, "seed", cfg.Display.Seed, "Fixed seed for the idle pattern; 0 picks one at startup.")

	radio := addMapping(root, "radio", "Tuning backend: disabled, rigctld or omnirig.")
	addString(radio, "backend", cfg.Radio.Backend, "")
	addString(radio, "addr", cfg.Radio.Addr, "")
	addDuration(radio, "timeout", cfg.Radio.Timeout, "")
	addInt(radio, "rig", cfg.Radio.Rig, "")

	met := addMapping(root, "metrics", "")
	addString(met, "listen", cfg.Metrics.Listen, "Prometheus /metrics address, e.g. :9108. Empty disables it.")

	out := addMapping(root, "output", "")
	addString(out, "color", cfg.Output.Color, "auto, always or never")

	return encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
}

// Write saves cfg to path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a dotted key such as "display.port" in the config file.
// It preserves the existing YAML structure and comments, creating missing
// sections as needed.
func SetValue(configPath, key, value string) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key '%s'", key)
		}
	}

	// Read the existing file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse as yaml.Node to preserve structure
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		// Empty file
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	// Walk to the parent mapping, creating sections on the way.
	for _, p := range parts[:len(parts)-1] {
		next := findMapValue(node, p)
		if next == nil {
			next = addMapping(node, p, "")
		}
		if next.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a section", p)
		}
		node = next
	}

	leaf := parts[len(parts)-1]
	scalar := findMapValue(node, leaf)
	if scalar == nil {
		scalar = &yaml.Node{Kind: yaml.ScalarNode}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: leaf}, scalar)
	}
	if scalar.Kind != yaml.ScalarNode {
		return fmt.Errorf("'%s' is a section, not a value", key)
	}

	scalar.Tag = ""
	scalar.Value = value
	scalar.Style = 0
	if value == "" {
		scalar.Tag = "!!str"
		scalar.Style = yaml.DoubleQuotedStyle
	}

	out, err := encode(&root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// KnownKey reports whether key is a dotted path to a value in the config
// schema, e.g. "display.port". Sections such as "display" are not values.
func KnownKey(key string) bool {
	data, err := Marshal(DefaultConfig())
	if err != nil {
		return false
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return false
	}
	var node any = tree
	for _, p := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return false
		}
		if node, ok = m[p]; !ok {
			return false
		}
	}
	_, isSection := node.(map[string]any)
	return !isSection
}

func encode(n *yaml.Node) ([]byte, error) {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(n); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()
	return []byte(buf.String()), nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}

func addMapping(parent *yaml.Node, key, comment string) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	parent.Content = append(parent.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, HeadComment: comment}, m)
	return m
}

func addScalar(parent *yaml.Node, key, tag, value, comment string) {
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value, LineComment: comment}
	if tag == "!!str" && value == "" {
		v.Style = yaml.DoubleQuotedStyle
	}
	parent.Content = append(parent.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}

func addString(parent *yaml.Node, key, value, comment string) {
	addScalar(parent, key, "!!str", value, comment)
}

func addInt(parent *yaml.Node, key string, value int, comment string) {
	addScalar(parent, key, "!!int", strconv.Itoa(value), comment)
}

func addInt64(parent *yaml.Node, key string, value int64, comment string) {
	addScalar(parent, key, "!!int", strconv.FormatInt(value, 10), comment)
}

func addBool(parent *yaml.Node, key string, value bool, comment string) {
	addScalar(parent, key, "!!bool", strconv.FormatBool(value), comment)
}

func addDuration(parent *yaml.Node, key string, value time.Duration, comment string) {
	addScalar(parent, key, "!!str", FormatDuration(value), comment)
}

// FormatDuration drops the zero units time.Duration.String leaves behind,
// so 10m0s becomes 10m and 1h0m0s becomes 1h.
func FormatDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}
