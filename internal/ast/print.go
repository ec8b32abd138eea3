package ast

import (
	"fmt"
	"io"
	"strings"
)

// Print renders the tree rooted at n to w, one node per line, indented
// by depth. Used by the CLI's -t/--tree flag.
func Print(w io.Writer, n *Node) {
	printNode(w, n, 0)
}

func printNode(w io.Writer, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	payload := ""
	switch n.Label {
	case Num:
		payload = fmt.Sprintf(" %d", n.NumVal)
	case Ident, Character, AddSub, DivStar, Order, TypeNode:
		if n.Ident != "" {
			payload = fmt.Sprintf(" %q", n.Ident)
		}
	}
	typeSuffix := ""
	if n.Type != 0 {
		typeSuffix = fmt.Sprintf(" :: %s", n.Type)
	}
	fmt.Fprintf(w, "%s%s%s [%d:%d]%s\n", indent, n.Label, payload, n.Line, n.Col, typeSuffix)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		printNode(w, c, depth+1)
	}
}
