package emit

import (
	"io"
	"strconv"

	"github.com/danmuck/tagtools/internal/layout"
	"gopkg.in/yaml.v3"
)

// Node converts an aggregate into a YAML mapping that keeps field order.
func Node(a *layout.Aggregate) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	a.Each(func(name string, n layout.Node) {
		m.Content = append(m.Content, scalar(name))
		if sub, ok := n.(*layout.Aggregate); ok {
			m.Content = append(m.Content, Node(sub))
			return
		}
		m.Content = append(m.Content, scalar(n.String()))
	})
	if len(a.Items) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range a.Items {
			seq.Content = append(seq.Content, Node(item))
		}
		m.Content = append(m.Content, scalar("items"), seq)
	}
	if len(a.Anomalies) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, note := range a.Anomalies {
			seq.Content = append(seq.Content, scalar(note))
		}
		m.Content = append(m.Content, scalar("anomalies"), seq)
	}
	return m
}

func scalar(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	if _, err := strconv.ParseFloat(v, 64); err != nil && v != "" {
		n.Tag = "!!str"
	}
	return n
}

// YAML writes a as one YAML document.
func YAML(w io.Writer, a *layout.Aggregate) error {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{Node(a)}}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
