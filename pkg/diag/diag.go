// Package diag implements the Mach pipeline's single global error sink:
// structured diagnostics for three failure kinds (upstream contract
// violation, unimplemented feature, builder misuse), plus the Bug panic
// payload that builder-level contract checks raise. This unifies a
// recognized-but-unsupported-input sentinel error with a panic("...")
// idiom for internal corruption behind one type, so every pass reports
// failures the same way.
package diag

import "fmt"

// Kind classifies a Diagnostic.
type Kind int

const (
	// KindUpstreamViolation means the input violated the contract the
	// Mach pipeline trusts earlier phases to have established (a
	// non-monomorphic type, an unresolved name, a missing mach type on
	// a symbol, an arity mismatch at a call site).
	KindUpstreamViolation Kind = iota
	// KindUnimplemented marks a recognized but not-yet-supported
	// feature (for-loops, recursive bindings, redundant-pattern
	// detection).
	KindUnimplemented
	// KindBuilderMisuse marks an IR-builder contract violation: these
	// indicate a bug in this compiler, not bad input.
	KindBuilderMisuse
)

func (k Kind) String() string {
	switch k {
	case KindUpstreamViolation:
		return "upstream violation"
	case KindUnimplemented:
		return "unimplemented"
	case KindBuilderMisuse:
		return "builder misuse"
	default:
		return "unknown"
	}
}

// Diagnostic is a single compilation failure. Where names the pass and
// the offending binding/AST node label — the core never sees source
// text, so there is no line/column to report.
type Diagnostic struct {
	Kind    Kind
	Message string
	Where   string
}

func (d Diagnostic) Error() string {
	if d.Where == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Where, d.Message)
}

// Bug is the panic payload for builder misuse and other "this can't
// happen" internal states. It is recovered exactly once, at the top of
// machdriver.Compile, and converted into a returned error so a caller
// never sees an unrecovered panic escape the package boundary.
type Bug struct {
	Diagnostic
}

// Panic raises a KindBuilderMisuse Bug for the given pass/where and
// message.
func Panic(where, format string, args ...any) {
	panic(Bug{Diagnostic{Kind: KindBuilderMisuse, Where: where, Message: fmt.Sprintf(format, args...)}})
}

// Upstream builds a KindUpstreamViolation diagnostic.
func Upstream(where, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindUpstreamViolation, Where: where, Message: fmt.Sprintf(format, args...)}
}

// Unimplemented builds a KindUnimplemented diagnostic.
func Unimplemented(where, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: KindUnimplemented, Where: where, Message: fmt.Sprintf(format, args...)}
}

// Recover converts a panicking Bug into *err, leaving any other panic to
// propagate. Call via `defer diag.Recover(&err)` at a pass boundary.
func Recover(err *error) {
	if r := recover(); r != nil {
		if bug, ok := r.(Bug); ok {
			*err = bug
			return
		}
		panic(r)
	}
}
