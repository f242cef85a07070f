// Package errors implements this compiler's diagnostic system: a closed
// set of error kinds, a Diagnostic value that carries a source position
// and a message, and a Reporter that collects and renders them.
package errors

import "github.com/aoki-yuta/javac8/internal/token"

// Kind identifies the phase and nature of a diagnostic. The set is closed:
// callers switch on it exhaustively rather than matching against strings.
type Kind int

const (
	// ParseError covers lexical and syntactic failures: malformed tokens,
	// unexpected or missing tokens in the grammar.
	ParseError Kind = iota

	// NameResolutionError covers unresolved classes, fields, methods, and
	// variables: anything the resolver could not bind to a declaration.
	NameResolutionError

	// TypeError covers incompatible assignments, bad operand types for an
	// operator, and return-type mismatches.
	TypeError

	// UnsupportedFeatureError covers constructs the parser accepts but
	// the code generator does not lower, such as anonymous class bodies,
	// block-bodied lambdas, or inner-class variable capture.
	UnsupportedFeatureError

	// InvariantViolation covers internal consistency failures that should
	// be unreachable given a well-formed AST; seeing one points at a bug
	// in the compiler itself rather than in the input program.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse error"
	case NameResolutionError:
		return "cannot resolve"
	case TypeError:
		return "type error"
	case UnsupportedFeatureError:
		return "unsupported"
	case InvariantViolation:
		return "internal error"
	default:
		return "error"
	}
}

// Diagnostic is a single reported problem, anchored at a source position.
type Diagnostic struct {
	Kind    Kind
	Pos     token.Position
	Message string
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return d.Pos.String() + ": " + d.Kind.String() + ": " + d.Message
	}
	return d.Kind.String() + ": " + d.Message
}

// New builds a Diagnostic without going through a Reporter, for callers
// that want to propagate it as a Go error.
func New(kind Kind, pos token.Position, message string) Diagnostic {
	return Diagnostic{Kind: kind, Pos: pos, Message: message}
}

func (d Diagnostic) Error() string { return d.String() }
