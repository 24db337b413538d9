package parser

// Node is one declaration node of a parsed header. The set of
// implementations is closed: PtrDecl, ArrayDecl, Struct, Union, Enum,
// TypeDecl, FuncDecl, Typedef, Decl and the IdentifierType leaf.
type Node interface {
	node()
}

// Expr is an enumerator value expression.
type Expr interface {
	expr()
}

type IdentifierType struct {
	Names []string
}

type TypeDecl struct {
	DeclName string
	Quals    []string
	Type     Node
}

type PtrDecl struct {
	Quals []string
	Type  Node
}

type ArrayDecl struct {
	Type Node
	Dim  Expr
}

type FuncDecl struct {
	Args *ParamList
	Type Node
}

type ParamList struct {
	Params   []*Decl
	Variadic bool
}

// Struct with nil Decls is a tag reference, not a definition.
type Struct struct {
	Name  string
	Decls []*Decl
}

type Union struct {
	Name  string
	Decls []*Decl
}

// Enum with nil Values is a tag reference, not a definition.
type Enum struct {
	Name   string
	Values []*Enumerator
}

type Enumerator struct {
	Name  string
	Value Expr
}

type Typedef struct {
	Name  string
	Quals []string
	Type  Node
}

// Decl is a declaration. Storage holds its storage class specifiers
// (extern, static).
type Decl struct {
	Name    string
	Quals   []string
	Storage []string
	Type    Node
}

type Constant struct {
	Value string
}

type ID struct {
	Name string
}

type UnaryOp struct {
	Op   string
	Expr Expr
}

type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// File is the ordered list of top-level Typedef and Decl nodes of one header.
type File struct {
	Name  string
	Decls []Node
}

func (*IdentifierType) node() {}
func (*TypeDecl) node()       {}
func (*PtrDecl) node()        {}
func (*ArrayDecl) node()      {}
func (*FuncDecl) node()       {}
func (*Struct) node()         {}
func (*Union) node()          {}
func (*Enum) node()           {}
func (*Typedef) node()        {}
func (*Decl) node()           {}

func (*Constant) expr() {}
func (*ID) expr()       {}
func (*UnaryOp) expr()  {}
func (*BinaryOp) expr() {}

// DeclName returns the identifier carried by the innermost TypeDecl of n.
func DeclName(n Node) string {
	if td := Innermost(n); td != nil {
		return td.DeclName
	}
	return ""
}

// Innermost returns the TypeDecl at the end of the PtrDecl, ArrayDecl and
// FuncDecl chain starting at n, or nil.
func Innermost(n Node) *TypeDecl {
	for {
		switch v := n.(type) {
		case *TypeDecl:
			return v
		case *PtrDecl:
			n = v.Type
		case *ArrayDecl:
			n = v.Type
		case *FuncDecl:
			n = v.Type
		default:
			return nil
		}
	}
}
