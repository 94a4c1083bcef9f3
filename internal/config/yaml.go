package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// durationKeys are the YAML keys holding time.Duration values. yaml.v3 encodes
// durations as nanosecond integers, so they are rewritten as "15s" style
// strings which viper decodes back.
var durationKeys = map[string]bool{
	"shutdown_timeout":  true,
	"conn_max_lifetime": true,
	"connect_timeout":   true,
	"session_ttl":       true,
	"max_heartbeat_gap": true,
	"session_idle":      true,
	"timeout":           true,
}

// Marshal renders c as YAML, the format accepted by --config.
func Marshal(c *Config) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	humanizeDurations(&node)
	data, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func humanizeDurations(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.Tag == "!!int" {
				if ns, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
					val.Value = time.Duration(ns).String()
					val.Tag = "!!str"
				}
			}
		}
	}
	for _, child := range n.Content {
		humanizeDurations(child)
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Redacted returns a copy of c with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	if out.Storage.DSN != "" {
		out.Storage.DSN = "********"
	}
	if out.Auth.SeedPassword != "" {
		out.Auth.SeedPassword = "********"
	}
	if out.Reward.TokenSecret != "" {
		out.Reward.TokenSecret = "********"
	}
	if out.YouTube.APIKey != "" {
		out.YouTube.APIKey = "********"
	}
	return &out
}
