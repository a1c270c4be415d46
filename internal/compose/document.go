// Package compose rewrites docker compose files so several copies of the same
// stack can run side by side, and publishes the variables the rewritten file
// expects.
package compose

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is a parsed compose file. It keeps the yaml.v3 node tree so key
// order and comments survive a rewrite.
type Document struct {
	doc  *yaml.Node
	root *yaml.Node
}

// service is one entry of the top-level services mapping.
type service struct {
	name string
	node *yaml.Node
}

// Parse decodes a compose file. The top level must be a mapping.
func Parse(data []byte) (*Document, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, &ParseError{Err: err}
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) == 0 {
		return nil, &ParseError{Err: errors.New("document is empty")}
	}
	if n.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Err: fmt.Errorf("top level is a %s, not a mapping", kindName(n.Content[0].Kind))}
	}
	doc, err := expand(&n, nil)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return &Document{doc: doc, root: doc.Content[0]}, nil
}

// expand returns a copy of n with aliases replaced by copies of their targets
// and "<<" merge keys folded into their mappings, so every service owns the
// nodes the transform rewrites. Anchors are dropped since nothing refers to
// them afterwards.
func expand(n *yaml.Node, active map[*yaml.Node]bool) (*yaml.Node, error) {
	if n.Kind == yaml.AliasNode {
		if active[n.Alias] {
			return nil, fmt.Errorf("alias *%s refers to itself", n.Value)
		}
		if active == nil {
			active = make(map[*yaml.Node]bool)
		}
		active[n.Alias] = true
		c, err := expand(n.Alias, active)
		delete(active, n.Alias)
		if err != nil {
			return nil, err
		}
		if n.HeadComment != "" {
			c.HeadComment = n.HeadComment
		}
		if n.LineComment != "" {
			c.LineComment = n.LineComment
		}
		return c, nil
	}

	c := *n
	c.Anchor = ""
	c.Content = nil
	if n.Kind != yaml.MappingNode {
		for _, child := range n.Content {
			e, err := expand(child, active)
			if err != nil {
				return nil, err
			}
			c.Content = append(c.Content, e)
		}
		return &c, nil
	}

	explicit := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if !isMergeKey(n.Content[i]) {
			explicit[n.Content[i].Value] = true
		}
	}
	merged := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if !isMergeKey(key) {
			k, err := expand(key, active)
			if err != nil {
				return nil, err
			}
			v, err := expand(value, active)
			if err != nil {
				return nil, err
			}
			c.Content = append(c.Content, k, v)
			continue
		}

		src, err := expand(value, active)
		if err != nil {
			return nil, err
		}
		sources := []*yaml.Node{src}
		if src.Kind == yaml.SequenceNode {
			sources = src.Content
		}
		// Earlier sources win over later ones, explicit keys over all.
		for _, m := range sources {
			if m.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge value is a %s, not a mapping", key.Line, kindName(m.Kind))
			}
			for j := 0; j+1 < len(m.Content); j += 2 {
				name := m.Content[j].Value
				if explicit[name] || merged[name] {
					continue
				}
				merged[name] = true
				c.Content = append(c.Content, m.Content[j], m.Content[j+1])
			}
		}
	}
	return &c, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == "<<" && (n.Tag == "!!merge" || n.Tag == "")
}

// Encode renders the document in block style with two-space indentation.
func (d *Document) Encode() ([]byte, error) {
	blockStyle(d.doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.doc); err != nil {
		return nil, fmt.Errorf("encoding compose file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding compose file: %w", err)
	}
	return buf.Bytes(), nil
}

// Services returns the service names in file order.
func (d *Document) Services() []string {
	var names []string
	for _, svc := range d.services() {
		names = append(names, svc.name)
	}
	return names
}

func (d *Document) services() []service {
	_, node := lookup(d.root, "services")
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	var out []service
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			continue
		}
		out = append(out, service{name: node.Content[i].Value, node: value})
	}
	return out
}

// lookup finds key in mapping m, returning the index of the key node and the value.
func lookup(m *yaml.Node, key string) (int, *yaml.Node) {
	if m == nil || m.Kind != yaml.MappingNode {
		return -1, nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i, m.Content[i+1]
		}
	}
	return -1, nil
}

func remove(m *yaml.Node, key string) bool {
	i, _ := lookup(m, key)
	if i < 0 {
		return false
	}
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
	return true
}

// ensureMapping returns the mapping stored under key, creating it at the end
// of m (or replacing a null value) when needed.
func ensureMapping(m *yaml.Node, key string) *yaml.Node {
	i, value := lookup(m, key)
	if value != nil && value.Kind == yaml.MappingNode {
		return value
	}
	fresh := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if i >= 0 {
		m.Content[i+1] = fresh
		return fresh
	}
	m.Content = append(m.Content, str(key), fresh)
	return fresh
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// setString replaces a scalar's value in place so attached comments survive.
func setString(n *yaml.Node, v string) {
	n.Kind = yaml.ScalarNode
	n.Tag = "!!str"
	n.Value = v
	n.Content = nil
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func blockStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style &^= yaml.FlowStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "document"
	}
}
