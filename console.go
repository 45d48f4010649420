package cowtree

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/uax11"
	"golang.org/x/term"
)

// OutlineConfig configures the console outline of a tree.
type OutlineConfig struct {
	Width   int            // line width in fixed-width positions; 0 means unlimited
	Context *uax11.Context // context for measuring display widths of labels
	Colors  []*color.Color // colors per tree level, cycled; nil for plain output
}

// OutlineConfigFromTerminal is a simple helper for creating an OutlineConfig.
// It checks whether stdin is a terminal, and if so it reads the terminal's
// width and uses colors.
func OutlineConfigFromTerminal() *OutlineConfig {
	config := &OutlineConfig{Context: uax11.ContextFromEnvironment()}
	if term.IsTerminal(0) {
		w, _, err := term.GetSize(0)
		if err != nil {
			config.Width = 65
		} else {
			config.Width = w
		}
		config.Colors = defaultLevelColors()
	}
	return config
}

func defaultLevelColors() []*color.Color {
	return []*color.Color{
		color.New(color.FgBlue),
		color.New(color.FgGreen),
		color.New(color.FgMagenta),
		color.New(color.FgCyan),
	}
}

var graphemesOnce sync.Once

// Outline writes the node structure of s to w, one line per node, indented by
// depth. Nodes shared with other sets are marked with their reference count.
// Lines wider than config.Width are truncated. A nil config outputs plain,
// untruncated lines.
func Outline[T any](s *Set[T], w io.Writer, config *OutlineConfig) error {
	return outline(s, w, config, func(v T) string { return fmt.Sprint(v) })
}

// OutlineMap is Outline for maps.
func OutlineMap[K, V any](m *Map[K, V], w io.Writer, config *OutlineConfig) error {
	return outline(m.set, w, config, func(e Entry[K, V]) string {
		return fmt.Sprintf("%v: %v", e.Key, e.Value)
	})
}

func outline[T any](s *Set[T], w io.Writer, config *OutlineConfig, label func(T) string) error {
	if config == nil {
		config = &OutlineConfig{}
	}
	if config.Context == nil {
		config.Context = uax11.LatinContext
	}
	if config.Width > 0 {
		graphemesOnce.Do(grapheme.SetupGraphemeClasses)
	}
	if s.IsEmpty() {
		_, err := io.WriteString(w, "(empty)\n")
		return err
	}
	return outlineNode(s.root, 0, w, config, label)
}

func outlineNode[T any](n *Node[T], depth int, w io.Writer, config *OutlineConfig,
	label func(T) string) error {
	//
	labels := make([]string, len(n.entries))
	for i := range n.entries {
		labels[i] = label(n.entries[i].value)
	}
	line := strings.Repeat("  ", depth) + "[" + strings.Join(labels, " | ") + "]"
	if refs := n.refs.Load(); refs > 1 {
		line += fmt.Sprintf(" ×%d", refs)
	}
	line = truncate(line, config)
	var err error
	if len(config.Colors) > 0 {
		_, err = config.Colors[depth%len(config.Colors)].Fprint(w, line)
	} else {
		_, err = io.WriteString(w, line)
	}
	if err != nil {
		return err
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return err
	}
	for i := 0; i <= len(n.entries); i++ {
		if child := n.child(i); child != nil {
			if err = outlineNode(child, depth+1, w, config, label); err != nil {
				return err
			}
		}
	}
	return nil
}

// truncate shortens line to the configured width, measured in fixed-width
// positions, and marks the cut with an ellipsis.
func truncate(line string, config *OutlineConfig) string {
	if config.Width <= 0 {
		return line
	}
	gstr := grapheme.StringFromString(line)
	if uax11.StringWidth(gstr, config.Context) <= config.Width {
		return line
	}
	var b strings.Builder
	width := 0
	for i := 0; i < gstr.Len(); i++ {
		g := gstr.Nth(i)
		gw := uax11.Width([]byte(g), config.Context)
		if width+gw > config.Width-1 {
			break
		}
		b.WriteString(g)
		width += gw
	}
	b.WriteString("…")
	return b.String()
}
