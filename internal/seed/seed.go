// Package seed loads a read-only list of todos to start a session with.
// Nothing is ever written back; sessions do not outlive the process.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/todostate/internal/model"
)

//go:embed seed.schema.json
var schemaJSON string

const schemaURL = "https://todostate.local/seed.schema.json"

var ErrInvalid = errors.New("invalid seed file")

// Item is one seeded entry. Ids are assigned when the seed is applied.
type Item struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// Load reads path as JSON, or YAML when the extension is .yaml/.yml.
// A missing file is an error: a seed is always asked for explicitly.
func Load(path string) ([]Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return ParseJSON(b)
	}
}

func ParseJSON(b []byte) ([]Item, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return decode(raw)
}

func ParseYAML(b []byte) ([]Item, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	// round-trip through JSON so the validator sees JSON-shaped values
	jb, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return ParseJSON(jb)
}

func decode(raw any) ([]Item, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	for i := range items {
		items[i].Text = strings.TrimSpace(items[i].Text)
	}
	return items, nil
}

func validate(raw any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages(ve), "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func messages(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, messages(c)...)
	}
	return out
}

// Todos assigns ids from ids in file order.
func Todos(items []Item, ids *model.IDSource) []model.Todo {
	out := make([]model.Todo, 0, len(items))
	for _, it := range items {
		out = append(out, model.Todo{ID: ids.Next(), Text: it.Text, Completed: it.Completed})
	}
	return out
}
