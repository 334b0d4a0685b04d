// Package render converts query results to serializable records. The core
// operates on 0-based lines throughout; the 1-based conversion for display
// happens here, exactly once. Unknown lines render as 0.
package render

import (
	"kloc/internal/graph"
	"kloc/internal/model"
	"kloc/internal/query"
	"kloc/internal/traversal"
)

// Record is one serialized context-tree entry.
type Record struct {
	Depth     int      `json:"depth"`
	NodeID    string   `json:"node_id"`
	FQN       string   `json:"fqn"`
	Kind      string   `json:"kind,omitempty"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line,omitempty"`
	Signature string   `json:"signature,omitempty"`
	RefType   string   `json:"ref_type,omitempty"`
	Count     int      `json:"count,omitempty"`
	Sites     []Site   `json:"sites,omitempty"`
	Children  []Record `json:"children,omitempty"`

	Implementations []Record   `json:"implementations,omitempty"`
	Member          *Member    `json:"member,omitempty"`
	Arguments       []Argument `json:"arguments,omitempty"`
	Variable        *Variable  `json:"variable,omitempty"`
	SourceCall      *Record    `json:"source_call,omitempty"`
	CrossedFrom     string     `json:"crossed_from,omitempty"`
}

type Site struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

type Member struct {
	FQN         string `json:"fqn"`
	Name        string `json:"name"`
	AccessChain string `json:"access_chain,omitempty"`
}

type Argument struct {
	Position   int    `json:"position"`
	Expression string `json:"expression,omitempty"`
	Parameter  string `json:"parameter,omitempty"`
	ParamName  string `json:"param_name,omitempty"`
}

type Variable struct {
	Name    string `json:"name"`
	TypeFQN string `json:"type,omitempty"`
}

// ContextResult is the serialized form of a full context query.
type ContextResult struct {
	FQN        string      `json:"fqn"`
	Kind       string      `json:"kind"`
	File       string      `json:"file,omitempty"`
	Line       int         `json:"line,omitempty"`
	UsedBy     []Record    `json:"used_by"`
	Uses       []Record    `json:"uses"`
	Definition *Definition `json:"definition,omitempty"`
}

// Definition is the serialized DEFINITION section.
type Definition struct {
	FQN        string     `json:"fqn"`
	Kind       string     `json:"kind"`
	File       string     `json:"file,omitempty"`
	Line       int        `json:"line,omitempty"`
	Signature  string     `json:"signature,omitempty"`
	Arguments  []ArgDef   `json:"arguments,omitempty"`
	ReturnType string     `json:"return_type,omitempty"`
	Properties []PropDef  `json:"properties,omitempty"`
	Methods    []MethDef  `json:"methods,omitempty"`
	Extends    []string   `json:"extends,omitempty"`
	Implements []string   `json:"implements,omitempty"`
	UsesTraits []string   `json:"uses_traits,omitempty"`
	Injected   []ArgDef   `json:"dependencies,omitempty"`
	Type       string     `json:"type,omitempty"`
	Visibility string     `json:"visibility,omitempty"`
	Readonly   bool       `json:"readonly,omitempty"`
	Static     bool       `json:"static,omitempty"`
	Promoted   bool       `json:"promoted,omitempty"`
	ValueKind  string     `json:"value_kind,omitempty"`
	Types      []string   `json:"types,omitempty"`
	Source     *Record    `json:"source,omitempty"`
}

type ArgDef struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Position int    `json:"position"`
}

type PropDef struct {
	Name       string `json:"name"`
	FQN        string `json:"fqn"`
	Type       string `json:"type,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	Readonly   bool   `json:"readonly,omitempty"`
	Static     bool   `json:"static,omitempty"`
	Promoted   bool   `json:"promoted,omitempty"`
}

type MethDef struct {
	Name      string `json:"name"`
	FQN       string `json:"fqn"`
	Signature string `json:"signature,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Override  bool   `json:"override,omitempty"`
	Abstract  bool   `json:"abstract,omitempty"`
	Inherited bool   `json:"inherited,omitempty"`
}

// displayLine is the single 0-based to 1-based conversion point.
func displayLine(line int) int {
	if line < 0 {
		return 0
	}
	return line + 1
}

// Entries serializes a context tree.
func Entries(entries []*traversal.Entry) []Record {
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry(e))
	}
	return out
}

// Entry serializes one context-tree node and its subtrees.
func Entry(e *traversal.Entry) Record {
	r := Record{
		Depth:           e.Depth,
		NodeID:          e.NodeID,
		FQN:             e.FQN,
		Kind:            string(e.Kind),
		File:            e.File,
		Line:            displayLine(e.Line),
		Signature:       e.Signature,
		RefType:         string(e.RefType),
		Count:           e.Count,
		Children:        Entries(e.Children),
		Implementations: Entries(e.Implementations),
		CrossedFrom:     e.CrossedFrom,
	}
	for _, s := range e.Sites {
		r.Sites = append(r.Sites, Site{File: s.File, Line: displayLine(s.Line)})
	}
	if e.Member != nil {
		r.Member = &Member{
			FQN:         e.Member.FQN,
			Name:        e.Member.Name,
			AccessChain: e.Member.AccessChain,
		}
	}
	for _, a := range e.Arguments {
		r.Arguments = append(r.Arguments, Argument{
			Position:   a.Position,
			Expression: a.Expression,
			Parameter:  a.Parameter,
			ParamName:  a.ParamName,
		})
	}
	if e.Variable != nil {
		r.Variable = &Variable{Name: e.Variable.Name, TypeFQN: e.Variable.TypeFQN}
	}
	if e.SourceCall != nil {
		sc := Entry(e.SourceCall)
		r.SourceCall = &sc
	}
	return r
}

// Context serializes a full context query result.
func Context(ctx *traversal.Context) ContextResult {
	res := ContextResult{
		FQN:    ctx.Node.FQN,
		Kind:   string(ctx.Node.Kind),
		File:   ctx.Node.File,
		Line:   displayLine(ctx.Node.Line()),
		UsedBy: Entries(ctx.UsedBy),
		Uses:   Entries(ctx.Uses),
	}
	if ctx.Definition != nil {
		res.Definition = DefinitionOf(ctx.Definition)
	}
	return res
}

// DefinitionOf serializes a definition.
func DefinitionOf(d *traversal.Definition) *Definition {
	out := &Definition{
		FQN:        d.FQN,
		Kind:       string(d.Kind),
		File:       d.File,
		Line:       displayLine(d.Line),
		Signature:  d.Signature,
		ReturnType: d.ReturnType,
		Extends:    d.Extends,
		Implements: d.Implements,
		UsesTraits: d.UsesTraits,
		Type:       d.Type,
		Visibility: d.Visibility,
		Readonly:   d.Readonly,
		Static:     d.Static,
		Promoted:   d.Promoted,
		ValueKind:  string(d.ValueKind),
		Types:      d.Types,
	}
	for _, a := range d.Arguments {
		out.Arguments = append(out.Arguments, ArgDef{Name: a.Name, Type: a.Type, Position: a.Position})
	}
	for _, a := range d.Dependencies {
		out.Injected = append(out.Injected, ArgDef{Name: a.Name, Type: a.Type, Position: a.Position})
	}
	for _, p := range d.Properties {
		out.Properties = append(out.Properties, PropDef{
			Name:       p.Name,
			FQN:        p.FQN,
			Type:       p.Type,
			Visibility: p.Visibility,
			Readonly:   p.Readonly,
			Static:     p.Static,
			Promoted:   p.Promoted,
		})
	}
	for _, m := range d.Methods {
		out.Methods = append(out.Methods, MethDef{
			Name:      m.Name,
			FQN:       m.FQN,
			Signature: m.Signature,
			File:      m.File,
			Line:      displayLine(m.Line),
			Override:  m.Override,
			Abstract:  m.Abstract,
			Inherited: m.Inherited,
		})
	}
	if d.Source != nil {
		src := Entry(d.Source)
		out.Source = &src
	}
	return out
}

// Item serializes one flat traversal row.
func Item(it query.Item) Record {
	return Record{
		Depth:  it.Depth,
		NodeID: it.NodeID,
		FQN:    it.FQN,
		Kind:   string(it.Kind),
		File:   it.File,
		Line:   displayLine(it.Line),
	}
}

// Items serializes a flat traversal result.
func Items(items []query.Item) []Record {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		out = append(out, Item(it))
	}
	return out
}

// Candidate is one symbol-resolution match.
type Candidate struct {
	NodeID string `json:"node_id"`
	FQN    string `json:"fqn"`
	Kind   string `json:"kind"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Candidates serializes a resolution result.
func Candidates(nodes []*model.Node) []Candidate {
	out := make([]Candidate, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Candidate{
			NodeID: n.ID,
			FQN:    n.FQN,
			Kind:   string(n.Kind),
			File:   n.File,
			Line:   displayLine(n.Line()),
		})
	}
	return out
}

// StatsOf re-exports store statistics for the CLI and server.
func StatsOf(s *graph.Store) graph.Stats {
	return s.ComputeStats()
}
