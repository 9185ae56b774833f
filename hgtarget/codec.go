package hgtarget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension, defaulting to JSON.
func FormatFromPath(fp string) Format {
	switch strings.ToLower(filepath.Ext(fp)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func Parse(input []byte, format Format) (*Diagram, error) {
	d := NewDiagram()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(input))
		dec.KnownFields(true)
		if err := dec.Decode(d); err != nil {
			return nil, fmt.Errorf("failed to decode yaml diagram: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(input))
		dec.DisallowUnknownFields()
		if err := dec.Decode(d); err != nil {
			return nil, fmt.Errorf("failed to decode json diagram: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown diagram format %q", format)
	}
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Edges == nil {
		d.Edges = []Edge{}
	}
	return d, nil
}

func (diagram *Diagram) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		buf := &bytes.Buffer{}
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(diagram); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		b, err := json.MarshalIndent(diagram, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown diagram format %q", format)
	}
}

// ParseConfig decodes a TOML engine configuration file. Unknown keys are errors.
func ParseConfig(input []byte) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(input), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}
