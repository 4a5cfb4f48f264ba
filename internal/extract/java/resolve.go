package java

import (
	"sort"

	"refactor-bot/internal/extract"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func (u *universe) resolveClass(name string) *classDecl {
	if c, ok := u.byName[name]; ok {
		return c
	}
	return u.bySimple[typeBase(name)]
}

// hierarchy returns c followed by its known transitive supertypes, nearest first
func (u *universe) hierarchy(c *classDecl) []*classDecl {
	visited := map[*classDecl]bool{c: true}
	order := []*classDecl{c}
	for i := 0; i < len(order); i++ {
		for _, s := range order[i].supertypes {
			super := u.resolveClass(s)
			if super == nil || visited[super] {
				continue
			}
			visited[super] = true
			order = append(order, super)
		}
	}
	return order
}

func (u *universe) lookupField(c *classDecl, name string) *fieldDecl {
	for _, k := range u.hierarchy(c) {
		if f, ok := k.fields[name]; ok {
			return f
		}
	}
	return nil
}

func (u *universe) lookupMethod(c *classDecl, name string, arity int) *methodDecl {
	for _, k := range u.hierarchy(c) {
		for _, m := range k.methods {
			if m.name == name && !m.constructor && len(m.params) == arity {
				return m
			}
		}
	}
	return nil
}

func sameSignature(a, b *methodDecl) bool {
	if a.name != b.name || len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		if a.params[i].typ != b.params[i].typ {
			return false
		}
	}
	return true
}

// resolveOverrides links every instance method to the nearest ancestor
// method with the same signature
func (u *universe) resolveOverrides() {
	for _, c := range u.classes {
		supers := u.hierarchy(c)[1:]
		for _, m := range c.methods {
			m.override = m.annotated
			if m.constructor || m.static {
				continue
			}
		search:
			for _, s := range supers {
				for _, candidate := range s.methods {
					if !candidate.static && sameSignature(m, candidate) {
						m.ancestor = candidate
						m.override = true
						break search
					}
				}
			}
		}
	}
}

func (u *universe) addReference(from, to string, kind extract.ReferenceKind) {
	if from == to {
		return
	}
	key := [2]string{from, to}
	if u.seen[key] {
		return
	}
	u.seen[key] = true
	u.references = append(u.references, reference{from: from, to: to, kind: kind})
}

// scope is the flat set of parameters and locals of one method body
type scope map[string]string

func (u *universe) collectReferences(m *methodDecl) {
	if m.body == nil {
		return
	}
	src := m.class.src
	locals := make(scope)
	for _, p := range m.params {
		locals[p.name] = p.typ
	}
	collectLocals(m.body, src, locals)

	w := &walker{u: u, m: m, src: src, locals: locals}
	w.walk(m.body)
}

func collectLocals(node *tree_sitter.Node, src []byte, locals scope) {
	switch node.Kind() {
	case "local_variable_declaration":
		typ := typeName(node.ChildByFieldName("type"), src)
		for i := uint(0); i < node.NamedChildCount(); i++ {
			d := node.NamedChild(i)
			if d.Kind() == "variable_declarator" {
				if n := d.ChildByFieldName("name"); n != nil {
					locals[n.Utf8Text(src)] = typ
				}
			}
		}
	case "enhanced_for_statement", "catch_formal_parameter", "formal_parameter", "resource":
		if n := node.ChildByFieldName("name"); n != nil {
			locals[n.Utf8Text(src)] = typeName(node.ChildByFieldName("type"), src)
		}
	case "inferred_parameters":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			locals[node.NamedChild(i).Utf8Text(src)] = ""
		}
	case "lambda_expression":
		if p := node.ChildByFieldName("parameters"); p != nil && p.Kind() == "identifier" {
			locals[p.Utf8Text(src)] = ""
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		collectLocals(node.NamedChild(i), src, locals)
	}
}

type walker struct {
	u      *universe
	m      *methodDecl
	src    []byte
	locals scope
}

func (w *walker) text(node *tree_sitter.Node) string {
	return node.Utf8Text(w.src)
}

func (w *walker) walkChildren(node *tree_sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.walk(node.NamedChild(i))
	}
}

func (w *walker) walkField(node *tree_sitter.Node, field string) {
	if child := node.ChildByFieldName(field); child != nil {
		w.walk(child)
	}
}

func (w *walker) walk(node *tree_sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "method_invocation":
		w.invocation(node)
	case "field_access":
		w.receiver(node)
	case "object_creation_expression":
		if c := w.u.resolveClass(typeName(node.ChildByFieldName("type"), w.src)); c != nil {
			w.u.addReference(w.m.identifier, c.name, extract.ReferenceInstantiation)
		}
		w.walkField(node, "arguments")
	case "local_variable_declaration":
		if c := w.u.resolveClass(typeName(node.ChildByFieldName("type"), w.src)); c != nil {
			w.u.addReference(w.m.identifier, c.name, extract.ReferenceTypeUse)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if d := node.NamedChild(i); d.Kind() == "variable_declarator" {
				w.walkField(d, "value")
			}
		}
	case "enhanced_for_statement":
		w.walkField(node, "value")
		w.walkField(node, "body")
	case "lambda_expression":
		w.walkField(node, "body")
	case "identifier":
		w.identifier(node)
	case "method_reference", "class_declaration", "class_body", "line_comment", "block_comment":
	default:
		w.walkChildren(node)
	}
}

// identifier treats a bare name that is not a local as a field of the enclosing hierarchy
func (w *walker) identifier(node *tree_sitter.Node) {
	name := w.text(node)
	if _, local := w.locals[name]; local {
		return
	}
	if f := w.u.lookupField(w.m.class, name); f != nil {
		w.u.addReference(w.m.identifier, f.identifier, extract.ReferenceFieldAccess)
	}
}

// receiver resolves the class an expression evaluates to, recording the
// field it reads on the way
func (w *walker) receiver(node *tree_sitter.Node) *classDecl {
	switch node.Kind() {
	case "this":
		return w.m.class
	case "super":
		if h := w.u.hierarchy(w.m.class); len(h) > 1 {
			return h[1]
		}
		return nil
	case "identifier":
		name := w.text(node)
		if typ, local := w.locals[name]; local {
			return w.u.resolveClass(typ)
		}
		if f := w.u.lookupField(w.m.class, name); f != nil {
			w.u.addReference(w.m.identifier, f.identifier, extract.ReferenceFieldAccess)
			return w.u.resolveClass(f.typ)
		}
		return w.u.resolveClass(name)
	case "field_access":
		owner := w.receiver(node.ChildByFieldName("object"))
		if owner == nil {
			return nil
		}
		fieldNode := node.ChildByFieldName("field")
		if fieldNode == nil {
			return nil
		}
		if f := w.u.lookupField(owner, w.text(fieldNode)); f != nil {
			w.u.addReference(w.m.identifier, f.identifier, extract.ReferenceFieldAccess)
			return w.u.resolveClass(f.typ)
		}
		return nil
	case "parenthesized_expression":
		if node.NamedChildCount() > 0 {
			return w.receiver(node.NamedChild(0))
		}
	case "object_creation_expression":
		w.walk(node)
		return w.u.resolveClass(typeName(node.ChildByFieldName("type"), w.src))
	case "method_invocation":
		return w.invocation(node)
	}
	w.walk(node)
	return nil
}

func (w *walker) invocation(node *tree_sitter.Node) *classDecl {
	nameNode := node.ChildByFieldName("name")
	args := node.ChildByFieldName("arguments")
	w.walkField(node, "arguments")
	if nameNode == nil {
		return nil
	}

	owner := w.m.class
	if object := node.ChildByFieldName("object"); object != nil {
		owner = w.receiver(object)
	}
	if owner == nil {
		return nil
	}

	arity := 0
	if args != nil {
		arity = int(args.NamedChildCount())
	}
	target := w.u.lookupMethod(owner, w.text(nameNode), arity)
	if target == nil {
		return nil
	}
	w.u.addReference(w.m.identifier, target.identifier, extract.ReferenceCall)
	return w.u.resolveClass(target.returns)
}

func (u *universe) result() *extract.Result {
	r := &extract.Result{}
	for _, c := range u.classes {
		r.Classes = append(r.Classes, extract.Class{Name: c.name, Supertypes: qualified(u, c.supertypes), File: c.file})
		for _, f := range c.fieldOrder {
			r.Fields = append(r.Fields, extract.Field{Identifier: f.identifier, Class: c.name, Static: f.static, Type: f.typ})
		}
		for _, m := range c.methods {
			r.Methods = append(r.Methods, extract.Method{
				Identifier:  m.identifier,
				Class:       c.name,
				Static:      m.static,
				Abstract:    m.abstract,
				Override:    m.override,
				Constructor: m.constructor,
			})
			if m.ancestor != nil {
				r.Overrides = append(r.Overrides, extract.Override{Method: m.identifier, Ancestor: m.ancestor.identifier})
			}
		}
	}
	for _, ref := range u.references {
		r.References = append(r.References, extract.Reference{From: ref.from, To: ref.to, Kind: ref.kind})
	}
	r.Sort()
	return r
}

func qualified(u *universe, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if c := u.resolveClass(n); c != nil {
			out = append(out, c.name)
		} else {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
