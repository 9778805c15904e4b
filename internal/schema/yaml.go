package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts a single caption or a list of header lines.
func (c *Caption) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = Caption{node.Value}
		return nil
	case yaml.SequenceNode:
		var lines []string
		if err := node.Decode(&lines); err != nil {
			return err
		}
		*c = lines
		return nil
	}
	return fmt.Errorf("line %d: caption must be a string or a list", node.Line)
}

// UnmarshalYAML accepts "a b c" or [a, b, c].
func (l *ClassList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = strings.Fields(node.Value)
		return nil
	case yaml.SequenceNode:
		var classes []string
		if err := node.Decode(&classes); err != nil {
			return err
		}
		*l = classes
		return nil
	}
	return fmt.Errorf("line %d: class list must be a string or a list", node.Line)
}

// UnmarshalYAML accepts an option table index or a literal option list.
// List entries are option objects or plain scalars used as both value and
// text. A non-integer scalar is a one-item list.
func (s *ComboSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if i, err := strconv.Atoi(node.Value); err == nil {
			s.Index = &i
			return nil
		}
		if node.Value == "" {
			return fmt.Errorf("line %d: combo is empty", node.Line)
		}
		s.Items = []Option{{Value: node.Value, Text: node.Value}}
		return nil
	case yaml.SequenceNode:
		items := make([]Option, 0, len(node.Content))
		for _, n := range node.Content {
			var opt Option
			if err := n.Decode(&opt); err != nil {
				return err
			}
			items = append(items, opt)
		}
		s.Items = items
		return nil
	}
	return fmt.Errorf("line %d: combo must be an index or a list", node.Line)
}

// UnmarshalYAML accepts {value, text}, {CODE, NAME} or a bare scalar.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*o = Option{Value: node.Value, Text: node.Value}
		return nil
	case yaml.MappingNode:
		var m map[string]any
		if err := node.Decode(&m); err != nil {
			return err
		}
		*o = OptionFromMap(m)
		return nil
	}
	return fmt.Errorf("line %d: option must be a scalar or a mapping", node.Line)
}

// UnmarshalYAML accepts a single declaration or a list of them.
func (d *ValidatorDecls) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		var one ValidatorDecl
		if err := node.Decode(&one); err != nil {
			return err
		}
		*d = ValidatorDecls{one}
		return nil
	}
	out := make(ValidatorDecls, 0, len(node.Content))
	for _, n := range node.Content {
		var one ValidatorDecl
		if err := n.Decode(&one); err != nil {
			return err
		}
		out = append(out, one)
	}
	*d = out
	return nil
}

// UnmarshalYAML accepts a rule name or a {rule, special, message, pattern} object.
func (d *ValidatorDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*d = ValidatorDecl{Name: node.Value}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Rule    string `yaml:"rule"`
			Special string `yaml:"special"`
			Message string `yaml:"message"`
			Pattern string `yaml:"pattern"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*d = ValidatorDecl{
			Rule:    raw.Rule,
			Special: raw.Special,
			Message: raw.Message,
			Pattern: raw.Pattern,
		}
		return nil
	}
	return fmt.Errorf("line %d: validator must be a name or a mapping", node.Line)
}
