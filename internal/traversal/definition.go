package traversal

import (
	"sort"
	"strings"

	"kloc/internal/model"
	"kloc/internal/refs"
)

// Definition is the structural metadata of a symbol, assembled for the
// DEFINITION section of a context query.
type Definition struct {
	NodeID    string
	FQN       string
	Kind      model.NodeKind
	File      string
	Line      int
	Signature string

	// Callable fields.
	Arguments  []ArgumentDef
	ReturnType string

	// Class/interface fields.
	Properties   []PropertyDef
	Methods      []MethodDef
	Extends      []string
	Implements   []string
	UsesTraits   []string
	Dependencies []ArgumentDef // constructor-injected

	// Property fields.
	Type       string
	Visibility string
	Readonly   bool
	Static     bool
	Promoted   bool

	// Value fields.
	ValueKind model.ValueKind
	Types     []string
	Source    *Entry
}

// ArgumentDef is a formal parameter with its resolved type.
type ArgumentDef struct {
	Name     string
	Type     string
	Position int
}

// PropertyDef is a class property with flags parsed from its
// documentation strings. The parsing is best-effort text matching over a
// loosely structured comment, not a type-system query.
type PropertyDef struct {
	Name       string
	FQN        string
	Type       string
	Visibility string
	Readonly   bool
	Static     bool
	Promoted   bool
}

// MethodDef is a class method with its override/abstract/inherited tags.
type MethodDef struct {
	Name      string
	FQN       string
	Signature string
	File      string
	Line      int
	Override  bool
	Abstract  bool
	Inherited bool
}

// BuildDefinition assembles the definition of a node, dispatched on its
// kind. Unknown ids yield nil.
func (e *Engine) BuildDefinition(id string) *Definition {
	node := e.store.Node(id)
	if node == nil {
		return nil
	}
	def := &Definition{
		NodeID: node.ID,
		FQN:    node.FQN,
		Kind:   node.Kind,
		File:   node.File,
		Line:   node.Line(),
	}
	switch node.Kind {
	case model.KindMethod, model.KindFunction:
		e.defineCallable(def, node)
	case model.KindClass, model.KindTrait, model.KindEnum:
		e.defineClass(def, node)
	case model.KindInterface:
		e.defineInterface(def, node)
	case model.KindProperty:
		e.defineProperty(def, node)
	case model.KindValue:
		e.defineValue(def, node)
	}
	return def
}

func (e *Engine) defineCallable(def *Definition, node *model.Node) {
	def.Arguments = e.argumentDefs(node.ID)
	def.ReturnType = e.returnTypeOf(node.ID)
	def.Signature = e.signatureOf(node)
}

func (e *Engine) defineClass(def *Definition, node *model.Node) {
	def.Extends = e.fqnsOf(edgeTargetIDs(e.store.Outgoing(node.ID, model.EdgeExtends)))
	def.Implements = e.fqnsOf(e.store.Implements(node.ID))
	def.UsesTraits = e.fqnsOf(edgeTargetIDs(e.store.Outgoing(node.ID, model.EdgeUsesTrait)))

	for _, memberID := range e.store.ContainsChildren(node.ID) {
		member := e.store.Node(memberID)
		if member == nil {
			continue
		}
		switch member.Kind {
		case model.KindProperty:
			def.Properties = append(def.Properties, e.propertyDef(member))
		case model.KindMethod:
			def.Methods = append(def.Methods, e.methodDef(member, false))
			if member.Name == refs.ConstructorName {
				def.Dependencies = e.argumentDefs(memberID)
			}
		}
	}

	// Inherited methods: declared by an ancestor, not overridden locally.
	local := make(map[string]bool)
	for _, m := range def.Methods {
		local[m.Name] = true
	}
	for _, ancestorID := range e.store.Ancestors(node.ID) {
		for _, memberID := range e.store.ContainsChildren(ancestorID) {
			member := e.store.Node(memberID)
			if member == nil || member.Kind != model.KindMethod || local[member.Name] {
				continue
			}
			local[member.Name] = true
			def.Methods = append(def.Methods, e.methodDef(member, true))
		}
	}

	// Overrides first, then alphabetical, for stable display.
	sort.SliceStable(def.Methods, func(i, j int) bool {
		if def.Methods[i].Override != def.Methods[j].Override {
			return def.Methods[i].Override
		}
		return def.Methods[i].Name < def.Methods[j].Name
	})
	sort.SliceStable(def.Properties, func(i, j int) bool {
		return def.Properties[i].Name < def.Properties[j].Name
	})
}

// defineInterface lists contract methods only; interfaces have no
// properties and no constructors to inject through.
func (e *Engine) defineInterface(def *Definition, node *model.Node) {
	def.Extends = e.fqnsOf(edgeTargetIDs(e.store.Outgoing(node.ID, model.EdgeExtends)))
	for _, memberID := range e.store.ContainsChildren(node.ID) {
		member := e.store.Node(memberID)
		if member == nil || member.Kind != model.KindMethod {
			continue
		}
		def.Methods = append(def.Methods, e.methodDef(member, false))
	}
	sort.SliceStable(def.Methods, func(i, j int) bool {
		return def.Methods[i].Name < def.Methods[j].Name
	})
}

func (e *Engine) defineProperty(def *Definition, node *model.Node) {
	p := e.propertyDef(node)
	def.Type = p.Type
	def.Visibility = p.Visibility
	def.Readonly = p.Readonly
	def.Static = p.Static
	def.Promoted = p.Promoted
}

func (e *Engine) defineValue(def *Definition, node *model.Node) {
	def.ValueKind = node.ValueKind
	if node.TypeSymbol != "" {
		// Union types arrive as |-joined symbols.
		for _, sym := range strings.Split(node.TypeSymbol, "|") {
			if t := e.store.NodeBySymbol(sym); t != nil {
				def.Types = append(def.Types, t.FQN)
			} else {
				def.Types = append(def.Types, sym)
			}
		}
	}
	w := newWalk(DefaultOptions())
	if chain := e.sourceChain(w, node, 1); len(chain) > 0 {
		def.Source = chain[0]
	}
}

func (e *Engine) propertyDef(node *model.Node) PropertyDef {
	p := PropertyDef{Name: node.Name, FQN: node.FQN}
	p.Type = e.declaredTypeOf(node.ID)
	for _, doc := range node.Docs {
		lower := strings.ToLower(doc)
		for _, vis := range []string{"public", "protected", "private"} {
			if strings.Contains(lower, vis) {
				p.Visibility = vis
				break
			}
		}
		if strings.Contains(lower, "readonly") {
			p.Readonly = true
		}
		if strings.Contains(lower, "static") {
			p.Static = true
		}
		if strings.Contains(lower, "promoted") {
			p.Promoted = true
		}
		if p.Type == "" {
			if i := strings.Index(doc, "@var "); i >= 0 {
				rest := strings.Fields(doc[i+len("@var "):])
				if len(rest) > 0 {
					p.Type = rest[0]
				}
			}
		}
	}
	if _, ok := e.promotedParameter(node); ok {
		p.Promoted = true
	}
	return p
}

func (e *Engine) methodDef(node *model.Node, inherited bool) MethodDef {
	_, override := e.store.OverridesParent(node.ID)
	abstract := false
	for _, doc := range node.Docs {
		if strings.Contains(strings.ToLower(doc), "abstract") {
			abstract = true
			break
		}
	}
	return MethodDef{
		Name:      node.Name,
		FQN:       node.FQN,
		Signature: e.signatureOf(node),
		File:      node.File,
		Line:      node.Line(),
		Override:  override,
		Abstract:  abstract,
		Inherited: inherited,
	}
}

// argumentDefs lists a callable's formal parameters with resolved types,
// in declaration order.
func (e *Engine) argumentDefs(callableID string) []ArgumentDef {
	var out []ArgumentDef
	pos := 0
	for _, childID := range e.store.ContainsChildren(callableID) {
		child := e.store.Node(childID)
		if child == nil || child.Kind != model.KindArgument {
			continue
		}
		out = append(out, ArgumentDef{
			Name:     child.Name,
			Type:     e.declaredTypeOf(childID),
			Position: pos,
		})
		pos++
	}
	return out
}

// declaredTypeOf resolves a node's type_of edge to a display FQN.
func (e *Engine) declaredTypeOf(id string) string {
	for _, edge := range e.store.Outgoing(id, model.EdgeTypeOf) {
		if t := e.store.Node(edge.To); t != nil {
			return t.FQN
		}
	}
	return ""
}

func (e *Engine) returnTypeOf(id string) string {
	return e.declaredTypeOf(id)
}

// signatureOf renders a callable as "name(arg: Type, ...): Return".
func (e *Engine) signatureOf(node *model.Node) string {
	var b strings.Builder
	b.WriteString(node.Name)
	b.WriteByte('(')
	for i, arg := range e.argumentDefs(node.ID) {
		if i > 0 {
			b.WriteString(", ")
		}
		if arg.Type != "" {
			b.WriteString(model.ShortName(arg.Type))
			b.WriteByte(' ')
		}
		b.WriteString("$" + arg.Name)
	}
	b.WriteByte(')')
	if ret := e.returnTypeOf(node.ID); ret != "" {
		b.WriteString(": " + model.ShortName(ret))
	}
	return b.String()
}

func (e *Engine) fqnsOf(ids []string) []string {
	var out []string
	for _, id := range ids {
		if n := e.store.Node(id); n != nil {
			out = append(out, n.FQN)
		}
	}
	return out
}

func edgeTargetIDs(edges []*model.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}
