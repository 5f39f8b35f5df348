package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/ezrec/vica/asm"
)

// listing renders an assembled program as a tree of labels, each
// holding the instructions that follow it. Nodes carry their source line.
func listing(name string, prog *asm.Program, labels map[string]uint32) string {
	at := map[uint32][]string{}
	for label, addr := range labels {
		at[addr] = append(at[addr], label)
	}

	tree := treeprint.NewWithRoot(name)
	branch := tree
	seen := map[uint32]bool{}

	for n := range prog.Statements {
		st := &prog.Statements[n]
		if names, ok := at[st.Addr]; ok && !seen[st.Addr] {
			seen[st.Addr] = true
			slices.Sort(names)
			branch = tree.AddBranch(strings.Join(names, ", ") + ":")
		}

		addr := st.Addr
		for _, code := range st.Codes {
			branch.AddMetaNode(st.LineNo, fmt.Sprintf("%04x: %v", addr, code))
			addr += code.Op.Width()
		}
		if len(st.Data) != 0 {
			branch.AddMetaNode(st.LineNo, fmt.Sprintf("%04x: .byte % x", addr, st.Data))
		}
	}

	// Labels past the last statement.
	for _, addr := range slices.Sorted(maps.Keys(at)) {
		if seen[addr] {
			continue
		}
		names := at[addr]
		slices.Sort(names)
		tree.AddMetaNode(fmt.Sprintf("%04x", addr), strings.Join(names, ", ")+":")
	}

	return tree.String()
}
