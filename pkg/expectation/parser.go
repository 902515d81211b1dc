package expectation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a YAML or JSON expectation document.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided document
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses document content. JSON is accepted as YAML.
func Parse(data []byte, sourcePath string) (*Document, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty document"}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "document must be a mapping"}
	}

	doc := &Document{SourcePath: sourcePath}
	if err := root.Content[0].Decode(doc); err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = sourcePath
			return nil, pe
		}
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}
	return doc, nil
}

// blockRaw mirrors Block with the type-dependent payload left undecoded.
type blockRaw struct {
	ID         string          `yaml:"id"`
	Type       BlockType       `yaml:"type"`
	Label      string          `yaml:"label"`
	Order      float64         `yaml:"order"`
	Enabled    *bool           `yaml:"enabled"`
	Code       string          `yaml:"code"`
	Script     string          `yaml:"script"`
	Assertions []DataAssertion `yaml:"assertions"`
	Data       yaml.Node       `yaml:"data"`
}

// UnmarshalYAML decodes a block and its type-specific data.
func (b *Block) UnmarshalYAML(node *yaml.Node) error {
	var raw blockRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Type == "" {
		return &ParseError{Line: node.Line, Message: "block has no type"}
	}

	*b = Block{
		ID:         raw.ID,
		Type:       raw.Type,
		Label:      raw.Label,
		Order:      raw.Order,
		Enabled:    raw.Enabled,
		Code:       raw.Code,
		Script:     raw.Script,
		Assertions: raw.Assertions,
		Line:       node.Line,
	}

	hasData := raw.Data.Kind != 0 && raw.Data.ShortTag() != "!!null"
	switch raw.Type {
	case BlockUIAssertion:
		b.UI = &UIData{}
		if hasData {
			if err := raw.Data.Decode(b.UI); err != nil {
				return &ParseError{Line: raw.Data.Line, Message: fmt.Sprintf("invalid ui-assertion data: %v", err)}
			}
		}
	case BlockFunctionCall:
		if !hasData {
			return &ParseError{Line: node.Line, Message: "function-call block has no data"}
		}
		b.Call = &FunctionCall{}
		if err := raw.Data.Decode(b.Call); err != nil {
			return &ParseError{Line: raw.Data.Line, Message: fmt.Sprintf("invalid function-call data: %v", err)}
		}
	}
	return nil
}

// UnmarshalYAML keeps the declaration order of the mapping.
func (t *TextChecks) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &ParseError{Line: node.Line, Message: "text checks must be a mapping of selector to text"}
	}
	out := make(TextChecks, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value interface{}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		out = append(out, TextCheck{Field: node.Content[i].Value, Value: value})
	}
	*t = out
	return nil
}

// Get returns the expected text of field.
func (t TextChecks) Get(field string) (interface{}, bool) {
	for _, c := range t {
		if c.Field == field {
			return c.Value, true
		}
	}
	return nil, false
}

type functionSpecRaw FunctionSpec

// UnmarshalYAML decodes the ordered `functions` mapping. Each value is a
// spec object, a bare argument list, a single argument or null.
func (f *Functions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &ParseError{Line: node.Line, Message: "functions must be a mapping of method to spec"}
	}
	out := make(Functions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		spec := FunctionSpec{}
		switch {
		case val.Kind == yaml.MappingNode:
			var raw functionSpecRaw
			if err := val.Decode(&raw); err != nil {
				return err
			}
			spec = FunctionSpec(raw)
		case val.Kind == yaml.SequenceNode:
			if err := val.Decode(&spec.Args); err != nil {
				return err
			}
		case val.ShortTag() == "!!null":
		default:
			var arg interface{}
			if err := val.Decode(&arg); err != nil {
				return err
			}
			spec.Args = []interface{}{arg}
		}
		spec.Method = key.Value
		out = append(out, spec)
	}
	*f = out
	return nil
}

type functionCallRaw FunctionCall

// UnmarshalYAML accepts a bare method name or a call object.
func (f *FunctionCall) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FunctionCall{Method: node.Value}
		return nil
	}
	var raw functionCallRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*f = FunctionCall(raw)
	return nil
}

// CollectFiles finds all .yaml/.yml/.json files under path. A file path is
// returned as is.
func CollectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml", ".json":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}
