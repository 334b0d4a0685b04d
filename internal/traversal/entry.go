// Package traversal implements the context-query engine: depth-bounded,
// cycle-safe tree builders over the graph store in two directions (USED BY
// = incoming, USES = outgoing), specialized per node kind, plus the
// definition builder. All traversal state lives in a per-query context;
// nothing here mutates the store.
package traversal

import (
	"sort"

	"kloc/internal/model"
	"kloc/internal/refs"
)

// Entry is one hop in a context tree. Built fresh per query, discarded
// after serialization.
type Entry struct {
	Depth     int
	NodeID    string
	FQN       string
	Kind      model.NodeKind
	File      string
	Line      int // 0-based; converted at the render boundary
	Signature string
	RefType   refs.Type

	// Count and Sites carry grouped occurrences: when several call sites
	// collapse into one entry, Count > 1 and Sites lists each occurrence.
	Count int
	Sites []Site

	Children        []*Entry
	Implementations []*Entry

	// Member records which specific member of the queried symbol was
	// touched, with its receiver access chain.
	Member *MemberRef

	// Arguments maps actual argument expressions to formal parameters, in
	// position order.
	Arguments []ArgumentMapping

	// Variable is set when the entry represents a local bound to a call
	// result; SourceCall then nests the producing call.
	Variable   *VariableInfo
	SourceCall *Entry

	// CrossedFrom names the formal parameter a cross-method data-flow
	// trace passed through to reach this entry.
	CrossedFrom string
}

// Site is a single source occurrence inside a grouped entry.
type Site struct {
	File string
	Line int
}

// MemberRef details the touched member of a container-level entry.
type MemberRef struct {
	NodeID      string
	FQN         string
	Name        string
	AccessChain string
}

// ArgumentMapping pairs an actual argument with its formal parameter.
type ArgumentMapping struct {
	Position   int
	Expression string
	Parameter  string
	ParamName  string
}

// VariableInfo describes the local variable an entry is centered on.
type VariableInfo struct {
	Name    string
	TypeFQN string
}

// sortEntries orders a sibling list by (file, line) ascending with FQN and
// id tiebreaks, so repeated queries produce identical trees.
func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.FQN != b.FQN {
			return a.FQN < b.FQN
		}
		return a.NodeID < b.NodeID
	})
}

// sortSites orders grouped occurrence lists the same way.
func sortSites(sites []Site) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].File != sites[j].File {
			return sites[i].File < sites[j].File
		}
		return sites[i].Line < sites[j].Line
	})
}
