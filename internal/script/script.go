// Package script replays view-layer gestures against a store. Positions in
// a script are 1-based rows of the list as currently displayed, the same
// thing a user would point at.
package script

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrSyntax      = errors.New("script syntax")
	ErrPosition    = errors.New("no todo at position")
	ErrExpectation = errors.New("expectation failed")
)

type Op string

const (
	OpAdd    Op = "add"
	OpWait   Op = "wait"
	OpSleep  Op = "sleep"
	OpFilter Op = "filter"
	OpToggle Op = "toggle"
	OpRemove Op = "rm"
	OpExpect Op = "expect"
)

// Script is a named list of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one gesture. Which fields matter depends on Op.
type Step struct {
	Op    Op
	Text  string
	Pos   int
	Delay time.Duration
	Texts []string
}

func (s Step) String() string {
	switch s.Op {
	case OpAdd, OpFilter:
		return fmt.Sprintf("%s %q", s.Op, s.Text)
	case OpToggle, OpRemove:
		return fmt.Sprintf("%s %d", s.Op, s.Pos)
	case OpSleep:
		return fmt.Sprintf("%s %s", s.Op, s.Delay)
	case OpExpect:
		return fmt.Sprintf("%s %q", s.Op, s.Texts)
	}
	return string(s.Op)
}

// UnmarshalYAML accepts either a bare op ("wait") or a one-key mapping
// ("add: buy milk").
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if Op(n.Value) != OpWait {
			return fmt.Errorf("%w: line %d: %q needs an argument", ErrSyntax, n.Line, n.Value)
		}
		*s = Step{Op: OpWait}
		return nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return fmt.Errorf("%w: line %d: a step has exactly one key", ErrSyntax, n.Line)
		}
		return s.decode(Op(n.Content[0].Value), n.Content[1])
	}
	return fmt.Errorf("%w: line %d: unexpected step", ErrSyntax, n.Line)
}

func (s *Step) decode(op Op, v *yaml.Node) error {
	*s = Step{Op: op}
	switch op {
	case OpAdd, OpFilter:
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: %s takes a string", ErrSyntax, v.Line, op)
		}
		s.Text = v.Value
	case OpToggle, OpRemove:
		n, err := strconv.Atoi(strings.TrimSpace(v.Value))
		if err != nil || n < 1 {
			return fmt.Errorf("%w: line %d: %s takes a position >= 1", ErrSyntax, v.Line, op)
		}
		s.Pos = n
	case OpSleep:
		d, err := time.ParseDuration(strings.TrimSpace(v.Value))
		if err != nil || d < 0 {
			return fmt.Errorf("%w: line %d: sleep takes a duration", ErrSyntax, v.Line)
		}
		s.Delay = d
	case OpExpect:
		if err := v.Decode(&s.Texts); err != nil {
			return fmt.Errorf("%w: line %d: expect takes a list of texts", ErrSyntax, v.Line)
		}
		if s.Texts == nil {
			s.Texts = []string{}
		}
	case OpWait:
	default:
		return fmt.Errorf("%w: line %d: unknown op %q", ErrSyntax, v.Line, op)
	}
	return nil
}

func Parse(b []byte) (Script, error) {
	var sc Script
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return Script{}, err
	}
	if len(sc.Steps) == 0 {
		return Script{}, fmt.Errorf("%w: no steps", ErrSyntax)
	}
	return sc, nil
}

func Load(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	sc, err := Parse(b)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return sc, nil
}
