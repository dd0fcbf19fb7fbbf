package coreast

// Expr is the interface for Core expressions. The set of variants is
// exactly the set spec'd Pass 3 (Body Lowerer) knows how to lower: Lit,
// Var, App, Let, Lambda, Case, and the reserved, not-yet-implemented For.
type Expr interface {
	implCoreExpr()
	ExprType() Type
}

// Lit is a literal constant: word-sized int, float, or char.
type Lit struct {
	Kind LitKind
	Int  int64
	Flt  float64
	Chr  rune
	Typ  Type
}

func (Lit) implCoreExpr()      {}
func (l Lit) ExprType() Type   { return l.Typ }

// LitKind discriminates which field of Lit is populated.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitChar
)

// Var is a reference to a bound name: a top-level binding, a constructor,
// or a lambda/let-bound argument.
type Var struct {
	Name string
	Typ  Type
}

func (Var) implCoreExpr()    {}
func (v Var) ExprType() Type { return v.Typ }

// App is function application. Args are in left-to-right source order;
// Pass 3 peels them right-to-left when lowering.
type App struct {
	Fn   Expr
	Args []Expr
	Typ  Type
}

func (App) implCoreExpr()    {}
func (a App) ExprType() Type { return a.Typ }

// Let is a non-recursive local binding: Bind is lowered before Name is
// in scope. Recursive bindings are neither detected nor rejected; a
// reference to Name inside Bind resolves as it would outside the Let.
type Let struct {
	Name string
	Bind Expr
	Body Expr
	Typ  Type
}

func (Let) implCoreExpr()    {}
func (l Let) ExprType() Type { return l.Typ }

// Lambda is a lambda-lifted function: by the time Core reaches this
// pipeline, every Lambda not capturing live state has already been
// floated to a top-level Bind by the (out of scope) lambda-lifting pass.
// A Lambda surviving into a Bind's body always closes over state that
// the frontend legitimately decided must become a persistent slot.
type Lambda struct {
	Params []string
	Body   Expr
	Typ    Type
}

func (Lambda) implCoreExpr()  {}
func (l Lambda) ExprType() Type { return l.Typ }

// Case is a pattern match over a scrutinee.
type Case struct {
	Scrutinee Expr
	Alts      []Alt
	Typ       Type
}

func (Case) implCoreExpr()   {}
func (c Case) ExprType() Type { return c.Typ }

// Alt is one arm of a Case.
type Alt struct {
	// ConName is empty for a wildcard/variable pattern.
	ConName string
	// Binders names sub-pattern variables, bound by gep into the
	// matched variant's fields (positional, in constructor field order).
	Binders []string
	// VarBind is set instead of ConName for a plain variable pattern
	// that binds the whole scrutinee.
	VarBind string
	Body    Expr
}

// For is reserved in the AST but not yet implemented; encountering one
// aborts compilation.
type For struct {
	Var   string
	Range Expr
	Body  Expr
	Typ   Type
}

func (For) implCoreExpr()    {}
func (f For) ExprType() Type { return f.Typ }
