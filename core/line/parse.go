package line

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned for valid shell syntax the interpreter
	// doesn't implement, e.g. variables, lists or subshells.
	ErrUnsupported = errors.New("unsupported syntax")
	// ErrSyntax is returned for malformed lines.
	ErrSyntax = errors.New("syntax error")
	// ErrMisplacedRedirect is returned when input redirection is used past
	// the first command or output redirection before the last one.
	ErrMisplacedRedirect = errors.New("misplaced redirection")
)

// Parser turns one line of text into a Pipeline. A blank line yields a nil
// Pipeline and a nil error.
type Parser interface {
	Parse(text string) (*Pipeline, error)
}

// Syntax names a Parser implementation.
type Syntax string

const (
	SyntaxPosix Syntax = "posix"
	SyntaxWords Syntax = "words"
)

// NewParser returns the parser for the given syntax.
func NewParser(syntax Syntax) (Parser, error) {
	switch syntax {
	case SyntaxPosix, "":
		return &PosixParser{}, nil
	case SyntaxWords:
		return &WordParser{}, nil
	default:
		return nil, fmt.Errorf("unknown syntax %q", syntax)
	}
}

// assembler accumulates commands and redirections and enforces where each
// redirection may appear.
type assembler struct {
	pipeline Pipeline
	current  Command
	// pending redirections for the command being assembled
	input, output *Redirect
}

func (a *assembler) addArg(arg string) {
	a.current.Args = append(a.current.Args, arg)
}

func (a *assembler) redirectInput(path string) error {
	if path == "" {
		return fmt.Errorf("%w: <", ErrEmptyPath)
	}
	a.input = &Redirect{Path: path, Mode: ModeRead}
	return nil
}

func (a *assembler) redirectOutput(path string, mode Mode) error {
	if path == "" {
		return fmt.Errorf("%w: %s", ErrEmptyPath, mode)
	}
	a.output = &Redirect{Path: path, Mode: mode}
	return nil
}

func (a *assembler) redirectError(path string, mode Mode) error {
	if path == "" {
		return fmt.Errorf("%w: 2%s", ErrEmptyPath, mode)
	}
	a.pipeline.Error = &Redirect{Path: path, Mode: mode}
	return nil
}

// endCommand closes the current command, isLast reports whether a pipe
// follows.
func (a *assembler) endCommand(isLast bool) error {
	if len(a.current.Args) == 0 {
		return fmt.Errorf("%w: missing command", ErrSyntax)
	}

	if a.input != nil {
		if len(a.pipeline.Commands) > 0 {
			return fmt.Errorf("%w: input redirection on %q, only the first command may read a file", ErrMisplacedRedirect, a.current.Name())
		}
		a.pipeline.Input = a.input
	}
	if a.output != nil {
		if !isLast {
			return fmt.Errorf("%w: output redirection on %q, only the last command may write a file", ErrMisplacedRedirect, a.current.Name())
		}
		a.pipeline.Output = a.output
	}

	a.pipeline.Commands = append(a.pipeline.Commands, a.current)
	a.current = Command{}
	a.input, a.output = nil, nil
	return nil
}

func (a *assembler) finish() (*Pipeline, error) {
	if err := a.pipeline.Validate(); err != nil {
		return nil, err
	}
	out := a.pipeline
	return &out, nil
}
