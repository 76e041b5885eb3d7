package imageinfo

import (
	"fmt"
	"io"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
)

// Aggregate returns the block as one aggregate: the basic fields followed by
// a "plus" member holding the decoded plus strings in area order.
func (i *Info) Aggregate() *layout.Aggregate {
	out := layout.NewAggregate("image_info")
	i.Basic.Each(func(name string, n layout.Node) {
		out.Set(name, n)
	})
	out.SetDerived("version", "%s", layout.TextValue(i.Version()))
	plus := layout.NewAggregate("plus")
	for _, tlv := range i.Plus {
		v, err := layout.Text(tlv.Name(), len(tlv.Data)).Decode(tlv.Data)
		if err != nil {
			continue
		}
		plus.SetDerived(tlv.Name(), "%s", v)
	}
	out.Attach("plus", plus)
	return out
}

// Render writes a summary line and, from verbosity 1, every field.
func (i *Info) Render(w io.Writer, level int, format emit.Format) error {
	if format == emit.FormatYAML {
		return emit.YAML(w, i.Aggregate())
	}
	if _, err := fmt.Fprintf(w, "image info: version %s  hw %d/%d  start %#010x  length %d\n",
		i.Version(), i.Basic.Uint("hw_model"), i.Basic.Uint("hw_rev"),
		i.Basic.Uint("image_start"), i.Basic.Uint("image_length")); err != nil {
		return err
	}
	for _, line := range [][2]string{
		{"desc", i.Desc}, {"repo0", i.Repo0}, {"url0", i.URL0},
		{"repo1", i.Repo1}, {"url1", i.URL1}, {"stamp", i.Stamp},
	} {
		if line[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-6s %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	if level < 1 {
		return nil
	}
	return emit.Text(w, "  ", i.Basic)
}
