package java

import (
	"strings"

	"refactor-bot/internal/extract"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

type classDecl struct {
	name        string
	simple      string
	file        string
	src         []byte
	isInterface bool
	supertypes  []string
	fields      map[string]*fieldDecl
	fieldOrder  []*fieldDecl
	methods     []*methodDecl
}

type param struct {
	name string
	typ  string
}

type methodDecl struct {
	identifier  string
	name        string
	class       *classDecl
	params      []param
	returns     string
	static      bool
	abstract    bool
	annotated   bool
	override    bool
	constructor bool
	ancestor    *methodDecl
	body        *tree_sitter.Node
}

type fieldDecl struct {
	identifier string
	name       string
	typ        string
	static     bool
}

type reference struct {
	from, to string
	kind     extract.ReferenceKind
}

// universe is every class declared in the extracted files
type universe struct {
	classes    []*classDecl
	byName     map[string]*classDecl
	bySimple   map[string]*classDecl
	references []reference
	seen       map[[2]string]bool
}

func newUniverse() *universe {
	return &universe{
		byName:   make(map[string]*classDecl),
		bySimple: make(map[string]*classDecl),
		seen:     make(map[[2]string]bool),
	}
}

func (u *universe) declareFile(path string, src []byte, root *tree_sitter.Node) {
	pkg := ""
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child.Kind() == "package_declaration" {
			for j := uint(0); j < child.NamedChildCount(); j++ {
				n := child.NamedChild(j)
				if n.Kind() == "scoped_identifier" || n.Kind() == "identifier" {
					pkg = n.Utf8Text(src)
				}
			}
		}
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		u.declareType(path, src, pkg, "", root.NamedChild(i))
	}
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return true
	}
	return false
}

func (u *universe) declareType(path string, src []byte, pkg, outer string, node *tree_sitter.Node) {
	if !isTypeDeclaration(node.Kind()) {
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	simple := nameNode.Utf8Text(src)
	if outer != "" {
		simple = outer + "." + simple
	}
	name := simple
	if pkg != "" {
		name = pkg + "." + simple
	}
	if _, exists := u.byName[name]; exists {
		return
	}

	c := &classDecl{
		name:        name,
		simple:      simple,
		file:        path,
		src:         src,
		isInterface: node.Kind() == "interface_declaration",
		fields:      make(map[string]*fieldDecl),
	}
	u.classes = append(u.classes, c)
	u.byName[name] = c
	if _, taken := u.bySimple[simple]; !taken {
		u.bySimple[simple] = c
	}
	if last := simple[strings.LastIndex(simple, ".")+1:]; last != simple {
		if _, taken := u.bySimple[last]; !taken {
			u.bySimple[last] = c
		}
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "superclass", "super_interfaces", "extends_interfaces":
			c.supertypes = append(c.supertypes, typeList(child, src)...)
		}
	}
	if node.Kind() == "record_declaration" {
		if params := node.ChildByFieldName("parameters"); params != nil {
			for _, p := range parameters(params, src) {
				c.addField(&fieldDecl{name: p.name, typ: p.typ})
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	u.declareMembers(path, src, pkg, c, body)
}

func (u *universe) declareMembers(path string, src []byte, pkg string, c *classDecl, body *tree_sitter.Node) {
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		switch member.Kind() {
		case "field_declaration", "constant_declaration":
			mods := readModifiers(member, src)
			typ := typeName(member.ChildByFieldName("type"), src)
			for j := uint(0); j < member.NamedChildCount(); j++ {
				d := member.NamedChild(j)
				if d.Kind() != "variable_declarator" {
					continue
				}
				if n := d.ChildByFieldName("name"); n != nil {
					c.addField(&fieldDecl{
						name:   n.Utf8Text(src),
						typ:    typ,
						static: mods.static || c.isInterface || member.Kind() == "constant_declaration",
					})
				}
			}
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
			c.addMethod(member, src)
		case "enum_body_declarations":
			u.declareMembers(path, src, pkg, c, member)
		default:
			if isTypeDeclaration(member.Kind()) {
				u.declareType(path, src, pkg, c.simple, member)
			}
		}
	}
}

func (c *classDecl) addField(f *fieldDecl) {
	if _, exists := c.fields[f.name]; exists {
		return
	}
	f.identifier = c.name + "." + f.name
	c.fields[f.name] = f
	c.fieldOrder = append(c.fieldOrder, f)
}

func (c *classDecl) addMethod(node *tree_sitter.Node, src []byte) {
	mods := readModifiers(node, src)
	m := &methodDecl{
		class:       c,
		static:      mods.static,
		abstract:    mods.abstract,
		annotated:   mods.override,
		constructor: node.Kind() != "method_declaration",
		body:        node.ChildByFieldName("body"),
	}
	if n := node.ChildByFieldName("name"); n != nil {
		m.name = n.Utf8Text(src)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		m.params = parameters(params, src)
	}
	m.returns = typeName(node.ChildByFieldName("type"), src)
	if c.isInterface && m.body == nil && !mods.static {
		m.abstract = true
	}

	types := make([]string, len(m.params))
	for i, p := range m.params {
		types[i] = p.typ
	}
	m.identifier = c.name + "." + m.name + "(" + strings.Join(types, ",") + ")"
	for _, existing := range c.methods {
		if existing.identifier == m.identifier {
			return
		}
	}
	c.methods = append(c.methods, m)
}

type modifiers struct {
	static   bool
	abstract bool
	override bool
}

func readModifiers(node *tree_sitter.Node, src []byte) modifiers {
	var mods modifiers
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			m := child.Child(j)
			switch m.Kind() {
			case "static":
				mods.static = true
			case "abstract":
				mods.abstract = true
			case "marker_annotation", "annotation":
				if n := m.ChildByFieldName("name"); n != nil && typeBase(n.Utf8Text(src)) == "Override" {
					mods.override = true
				}
			}
		}
	}
	return mods
}

func parameters(node *tree_sitter.Node, src []byte) []param {
	var params []param
	for i := uint(0); i < node.NamedChildCount(); i++ {
		p := node.NamedChild(i)
		switch p.Kind() {
		case "formal_parameter":
			name := ""
			if n := p.ChildByFieldName("name"); n != nil {
				name = n.Utf8Text(src)
			}
			params = append(params, param{name: name, typ: typeName(p.ChildByFieldName("type"), src)})
		case "spread_parameter":
			var typ, name string
			for j := uint(0); j < p.NamedChildCount(); j++ {
				c := p.NamedChild(j)
				switch c.Kind() {
				case "variable_declarator":
					if n := c.ChildByFieldName("name"); n != nil {
						name = n.Utf8Text(src)
					}
				case "modifiers":
				default:
					if typ == "" {
						typ = typeName(c, src)
					}
				}
			}
			params = append(params, param{name: name, typ: typ + "..."})
		}
	}
	return params
}

// typeList collects the type names below a superclass/interfaces clause
func typeList(node *tree_sitter.Node, src []byte) []string {
	var types []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "type_list":
			types = append(types, typeList(child, src)...)
		default:
			if name := typeName(child, src); name != "" {
				types = append(types, name)
			}
		}
	}
	return types
}

// typeName renders a type without generics or package qualifiers
func typeName(node *tree_sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "generic_type":
		if node.NamedChildCount() > 0 {
			return typeName(node.NamedChild(0), src)
		}
	case "scoped_type_identifier":
		if n := node.NamedChildCount(); n > 0 {
			return typeName(node.NamedChild(n-1), src)
		}
	case "array_type":
		element := node.ChildByFieldName("element")
		dims := node.ChildByFieldName("dimensions")
		suffix := "[]"
		if dims != nil {
			suffix = strings.ReplaceAll(dims.Utf8Text(src), " ", "")
		}
		return typeName(element, src) + suffix
	case "annotated_type":
		if n := node.NamedChildCount(); n > 0 {
			return typeName(node.NamedChild(n-1), src)
		}
	}
	return typeBase(node.Utf8Text(src))
}

func typeBase(text string) string {
	if i := strings.Index(text, "<"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	return text[strings.LastIndex(text, ".")+1:]
}
