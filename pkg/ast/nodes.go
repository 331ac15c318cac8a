package ast

// Span is the 1-based, inclusive line range a node covers.
type Span struct {
	StartLine int
	EndLine   int
}

// Lines returns the number of lines spanned, never less than 1.
func (s Span) Lines() int {
	if n := s.EndLine - s.StartLine + 1; n > 1 {
		return n
	}
	return 1
}

// Node is implemented by every syntax tree node in this package and no others.
type Node interface {
	Pos() Span
	node()
}

// ParamKind distinguishes the roles a parameter slot can play.
type ParamKind string

const (
	ParamPlain      ParamKind = "plain"
	ParamVarArgs    ParamKind = "varargs"    // *args, Go ...T
	ParamKwArgs     ParamKind = "kwargs"     // **kwargs
	ParamKwOnlySep  ParamKind = "kwonly_sep" // bare *
	ParamPosOnlySep ParamKind = "posonly_sep"
	ParamReceiver   ParamKind = "receiver"
	ParamResult     ParamKind = "result"
)

// ConstKind is the literal category of a Constant.
type ConstKind string

const (
	ConstInt    ConstKind = "int"
	ConstFloat  ConstKind = "float"
	ConstImag   ConstKind = "imag"
	ConstString ConstKind = "str"
	ConstBytes  ConstKind = "bytes"
	ConstRune   ConstKind = "rune"
	ConstBool   ConstKind = "bool"
	ConstNone   ConstKind = "none"
)

// CollectionKind is the display form of a Collection or Comprehension.
type CollectionKind string

const (
	CollList      CollectionKind = "List"
	CollTuple     CollectionKind = "Tuple"
	CollSet       CollectionKind = "Set"
	CollDict      CollectionKind = "Dict"
	CollGenerator CollectionKind = "Generator"
	CollComposite CollectionKind = "Composite"
)

// FunctionDef is a named or anonymous function, method, or closure.
type FunctionDef struct {
	Span
	Name       string // empty for anonymous functions
	Async      bool
	Decorators []Node
	Params     []*Param
	Returns    Node // return annotation, may be nil
	Body       []Node
	Doc        string // leading docstring, stripped from Body
}

// ClassDef is a class (or other named type body holding methods).
type ClassDef struct {
	Span
	Name       string
	Decorators []Node
	Bases      []Node
	Body       []Node
}

// Param is one slot in a parameter list.
type Param struct {
	Span
	Name       string // empty for separators and unnamed Go params
	Kind       ParamKind
	Annotation Node
	Default    Node
}

// Return is a return statement.
type Return struct {
	Span
	Values []Node
}

// Assign covers plain, augmented, annotated and declaring assignments as well
// as ++/-- and the walrus operator.
type Assign struct {
	Span
	Op         string // "=", ":=", "+=", "++", ...
	Targets    []Node
	Values     []Node
	Annotation Node
	Binds      bool // targets become local names of the enclosing function
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Span
	X Node
}

// If is a conditional. elif chains nest as a single If inside Else.
type If struct {
	Span
	Init Node
	Cond Node
	Body []Node
	Else []Node
}

// For iterates Target over Iter.
type For struct {
	Span
	Async  bool
	Target Node
	Iter   Node
	Binds  bool
	Body   []Node
	Else   []Node
}

// While is a condition loop, including C-style three-clause loops.
type While struct {
	Span
	Init Node
	Cond Node
	Post Node
	Body []Node
	Else []Node
}

// Try is an exception-handling block.
type Try struct {
	Span
	Body     []Node
	Handlers []*Handler
	Else     []Node
	Finally  []Node
}

// Handler is one except clause.
type Handler struct {
	Span
	Type   Node
	Target Node
	Body   []Node
}

// With is a context-manager block.
type With struct {
	Span
	Async bool
	Items []*WithItem
	Body  []Node
}

// WithItem is one context expression with its optional target.
type WithItem struct {
	Span
	Context Node
	Target  Node
}

// Switch is a multi-way branch.
type Switch struct {
	Span
	Init  Node
	Tag   Node
	Cases []*Case
}

// Case is one arm of a Switch.
type Case struct {
	Span
	Default bool
	Values  []Node
	Body    []Node
}

// Raise raises or panics.
type Raise struct {
	Span
	Exc   Node
	Cause Node
}

// Branch is break, continue, pass, fallthrough or goto.
type Branch struct {
	Span
	Keyword string
	Label   string
}

// Global declares names as module or enclosing-scope names.
type Global struct {
	Span
	Nonlocal bool
	Names    []string
}

// Delete removes targets.
type Delete struct {
	Span
	Targets []Node
}

// Assert is an assertion.
type Assert struct {
	Span
	Test Node
	Msg  Node
}

// Import is kept as its source text.
type Import struct {
	Span
	Text string
}

// Deferred is a Go defer or go statement.
type Deferred struct {
	Span
	Keyword string
	Call    Node
}

// Name is an identifier reference or binding.
type Name struct {
	Span
	ID string
}

// Constant is a literal value. Value holds the literal text.
type Constant struct {
	Span
	Kind  ConstKind
	Value string
}

// FString is an interpolated string; Parts alternate Constants and expressions.
type FString struct {
	Span
	Parts []Node
}

// Attribute is X.Attr.
type Attribute struct {
	Span
	X    Node
	Attr string
}

// Subscript is X[Index].
type Subscript struct {
	Span
	X     Node
	Index Node
}

// Slice is lo:hi:step inside a subscript.
type Slice struct {
	Span
	Lo, Hi, Step Node
}

// Call is a function call.
type Call struct {
	Span
	Func Node
	Args []Node
}

// Keyword is a named call argument.
type Keyword struct {
	Span
	Name  string
	Value Node
}

// Starred is *X or **X in a call or display.
type Starred struct {
	Span
	Double bool
	X      Node
}

// BinOp is a binary arithmetic, bitwise or boolean operation.
type BinOp struct {
	Span
	Op   string
	L, R Node
}

// UnaryOp is a prefix operation, including not, await and yield.
type UnaryOp struct {
	Span
	Op string
	X  Node
}

// Compare is a (possibly chained) comparison.
type Compare struct {
	Span
	Ops      []string
	Operands []Node
}

// IfExp is a conditional expression.
type IfExp struct {
	Span
	Cond, Then, Else Node
}

// Collection is a list, tuple, set, dict or composite literal.
type Collection struct {
	Span
	Kind CollectionKind
	Type Node // composite literal type, may be nil
	Elts []Node
}

// Pair is a key/value entry of a Dict or keyed composite element.
type Pair struct {
	Span
	Key, Value Node
}

// Lambda is an anonymous expression function.
type Lambda struct {
	Span
	Params []*Param
	Body   Node
}

// Comprehension is a list/set/dict/generator comprehension.
type Comprehension struct {
	Span
	Kind       CollectionKind
	Elt        Node
	Generators []*Generator
}

// Generator is one for-clause of a Comprehension.
type Generator struct {
	Span
	Async  bool
	Target Node
	Iter   Node
	Ifs    []Node
}

// TypeRef is a type expression kept as normalized source text.
type TypeRef struct {
	Span
	Text string
}

// Generic holds constructs no dedicated type models. Leaves keep their text.
type Generic struct {
	Span
	Type     string
	Text     string
	Children []Node
}

func (s Span) Pos() Span { return s }

func (*FunctionDef) node()   {}
func (*ClassDef) node()      {}
func (*Param) node()         {}
func (*Return) node()        {}
func (*Assign) node()        {}
func (*ExprStmt) node()      {}
func (*If) node()            {}
func (*For) node()           {}
func (*While) node()         {}
func (*Try) node()           {}
func (*Handler) node()       {}
func (*With) node()          {}
func (*WithItem) node()      {}
func (*Switch) node()        {}
func (*Case) node()          {}
func (*Raise) node()         {}
func (*Branch) node()        {}
func (*Global) node()        {}
func (*Delete) node()        {}
func (*Assert) node()        {}
func (*Import) node()        {}
func (*Deferred) node()      {}
func (*Name) node()          {}
func (*Constant) node()      {}
func (*FString) node()       {}
func (*Attribute) node()     {}
func (*Subscript) node()     {}
func (*Slice) node()         {}
func (*Call) node()          {}
func (*Keyword) node()       {}
func (*Starred) node()       {}
func (*BinOp) node()         {}
func (*UnaryOp) node()       {}
func (*Compare) node()       {}
func (*IfExp) node()         {}
func (*Collection) node()    {}
func (*Pair) node()          {}
func (*Lambda) node()        {}
func (*Comprehension) node() {}
func (*Generator) node()     {}
func (*TypeRef) node()       {}
func (*Generic) node()       {}
