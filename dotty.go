package cowtree

import (
	"fmt"
	"io"
	"strings"
)

type nodeids[T any] struct {
	idTable map[*Node[T]]int
	max     int
}

func newtable[T any]() nodeids[T] {
	return nodeids[T]{
		idTable: make(map[*Node[T]]int),
		max:     1,
	}
}

func (ids nodeids[T]) find(node *Node[T]) int {
	return ids.idTable[node]
}

// alloc returns the id of node and whether it has been seen before.
func (ids *nodeids[T]) alloc(node *Node[T]) (int, bool) {
	if id := ids.find(node); id > 0 {
		return id, true
	}
	ids.idTable[node] = ids.max
	ids.max++
	return ids.max - 1, false
}

// Set2Dot outputs the internal structure of a Set in Graphviz DOT format
// (for debugging purposes). Nodes shared with other sets are shaded by their
// reference count.
func Set2Dot[T any](s *Set[T], w io.Writer) {
	tree2Dot(s, w, func(v T) string { return fmt.Sprint(v) })
}

// Map2Dot outputs the internal structure of a Map in Graphviz DOT format
// (for debugging purposes).
func Map2Dot[K, V any](m *Map[K, V], w io.Writer) {
	tree2Dot(m.set, w, func(e Entry[K, V]) string {
		return fmt.Sprintf("%v: %v", e.Key, e.Value)
	})
}

func tree2Dot[T any](s *Set[T], w io.Writer, label func(T) string) {
	io.WriteString(w, "strict digraph {\n")
	io.WriteString(w, "\tnode [fontname=Arial,fontsize=12,shape=record];\n")
	ids := newtable[T]()
	var nodelist, edgelist strings.Builder
	if !s.IsEmpty() {
		dotNode(s.root, &ids, &nodelist, &edgelist, label)
	}
	io.WriteString(w, nodelist.String())
	io.WriteString(w, edgelist.String())
	io.WriteString(w, "}\n")
}

// dotNode writes n as a record with one port per child slot, followed by the
// subtrees below it. Shared subtrees are written once.
func dotNode[T any](n *Node[T], ids *nodeids[T], nodes, edges *strings.Builder, label func(T) string) int {
	ID, seen := ids.alloc(n)
	if seen {
		return ID
	}
	fields := make([]string, 0, 2*len(n.entries)+1)
	for i := range n.entries {
		fields = append(fields, fmt.Sprintf("<p%d>", i))
		fields = append(fields, dotEscape(label(n.entries[i].value)))
	}
	fields = append(fields, fmt.Sprintf("<p%d>", len(n.entries)))
	fmt.Fprintf(nodes, "\"%d\" [label=\"%s\" %s];\n", ID, strings.Join(fields, "|"),
		nodeDotStyles(n))
	for i := 0; i <= len(n.entries); i++ {
		child := n.child(i)
		if child == nil {
			continue
		}
		childID := dotNode(child, ids, nodes, edges, label)
		fmt.Fprintf(edges, "\"%d\":p%d -> \"%d\";\n", ID, i, childID)
	}
	return ID
}

func nodeDotStyles[T any](n *Node[T]) string {
	s := ",style=filled"
	refs := int(n.refs.Load())
	if refs > 1 {
		s += fmt.Sprintf(",fillcolor=\"%s\"", hexhlcolors[min(refs-2, len(hexhlcolors)-1)])
	} else {
		s += fmt.Sprintf(",fillcolor=\"%s\"", hexcolors[0])
	}
	return s
}

func dotEscape(s string) string {
	r := strings.NewReplacer(`"`, `\"`, "|", `\|`, "{", `\{`, "}", `\}`, "<", `\<`, ">", `\>`)
	return r.Replace(s)
}

var hexhlcolors = [...]string{"#FFEEDD", "#FFDDCC", "#FFCCAA", "#FFBB88", "#FFAA66",
	"#FF9944", "#FF8822", "#FF7700", "#ff6600"}

var hexcolors = [...]string{"white", "#CCDDFF", "#AACCFF", "#88BBFF", "#66AAFF",
	"#4499FF", "#2288FF", "#0077FF", "#0066FF"}
