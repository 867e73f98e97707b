package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SetupCmd configures MCP for various AI clients.
type SetupCmd struct {
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Local    bool   `help:"Create project-local configuration"`
	Global   bool   `help:"Create global configuration"`
	Format   string `help:"Output format (json|yaml)" enum:"json,yaml" default:"json"`
	FilePath string `help:"Custom directory for the local configuration"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(g *Globals) error {
	if !c.Qwen && !c.Claude && !c.Cursor {
		content, err := renderConfig(mcpConfig(), c.Format)
		if err != nil {
			return err
		}
		_, err = g.out().Write(content)
		return err
	}

	if !c.Local && !c.Global {
		c.Local = true
	}

	for _, client := range []struct {
		enabled bool
		name    string
		label   string
	}{
		{c.Qwen, "qwen", "Qwen"},
		{c.Claude, "claude", "Claude"},
		{c.Cursor, "cursor", "Cursor"},
	} {
		if !client.enabled {
			continue
		}

		if c.Global {
			path, err := globalConfigPath(client.name)
			if err != nil {
				return err
			}
			if err := writeConfig(path, c.Format); err != nil {
				return err
			}
			green.Fprintf(g.out(), "✓ Created global %s MCP config at %s\n", client.label, path)
		}

		if c.Local {
			path := localConfigPath(g.Root, client.name)
			if c.FilePath != "" {
				path = filepath.Join(c.FilePath, "mcp.json")
			}
			if err := writeConfig(path, c.Format); err != nil {
				return err
			}
			green.Fprintf(g.out(), "✓ Created local %s MCP config at %s\n", client.label, path)
		}
	}
	return nil
}

// mcpConfig is the server entry every supported client understands.
func mcpConfig() map[string]any {
	return map[string]any{
		"mcpServers": map[string]any{
			"axon-context": map[string]any{
				"command": "axon-context",
				"args":    []string{"serve", "--watch"},
			},
		},
	}
}

func clientConfigDir(client string) string {
	switch client {
	case "claude":
		return ".claude"
	case "cursor":
		return ".cursor"
	default:
		return ".qwen"
	}
}

func localConfigPath(root, client string) string {
	return filepath.Join(root, clientConfigDir(client), "mcp.json")
}

func globalConfigPath(client string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, clientConfigDir(client), "global", "mcp.json"), nil
}

func renderConfig(config map[string]any, format string) ([]byte, error) {
	if format == "yaml" {
		content, err := yaml.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return content, nil
	}

	content, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(content, '\n'), nil
}

func writeConfig(path, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	content, err := renderConfig(mcpConfig(), format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
