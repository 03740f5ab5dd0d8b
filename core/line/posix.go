package line

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// PosixParser parses lines with the POSIX shell grammar and accepts the
// subset the interpreter can run: a single pipeline of simple commands with
// file redirections.
type PosixParser struct{}

var _ Parser = (*PosixParser)(nil)

// Parse implements Parser.
func (*PosixParser) Parse(text string) (*Pipeline, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	switch len(prog.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, unsupported(prog.Stmts[1], "more than one statement")
	}

	stmt := prog.Stmts[0]
	if stmt.Negated || stmt.Coprocess {
		return nil, unsupported(stmt, "negated or coprocess statement")
	}

	var stages []*syntax.Stmt
	if err := flattenPipe(stmt, &stages); err != nil {
		return nil, err
	}

	asm := &assembler{}
	asm.pipeline.Background = stmt.Background
	for i, stage := range stages {
		if err := addStage(asm, stage); err != nil {
			return nil, err
		}
		if err := asm.endCommand(i == len(stages)-1); err != nil {
			return nil, err
		}
	}

	return asm.finish()
}

// flattenPipe collects the statements of a pipe chain left to right.
func flattenPipe(stmt *syntax.Stmt, out *[]*syntax.Stmt) error {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok {
		*out = append(*out, stmt)
		return nil
	}
	if bin.Op != syntax.Pipe {
		return unsupported(bin, fmt.Sprintf("operator %q", bin.Op.String()))
	}
	if len(stmt.Redirs) > 0 {
		return unsupported(stmt, "redirection of a whole pipeline")
	}
	if err := flattenPipe(bin.X, out); err != nil {
		return err
	}
	return flattenPipe(bin.Y, out)
}

func addStage(asm *assembler, stmt *syntax.Stmt) error {
	if stmt.Negated || stmt.Coprocess {
		return unsupported(stmt, "negated or coprocess statement")
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		if len(cmd.Assigns) > 0 {
			return unsupported(cmd.Assigns[0], "variable assignment")
		}
		for _, word := range cmd.Args {
			arg, err := evalWord(word)
			if err != nil {
				return err
			}
			asm.addArg(arg)
		}
	case nil:
		// Redirections only, caught by endCommand.
	default:
		return unsupported(stmt, fmt.Sprintf("%T", cmd))
	}

	for _, redirect := range stmt.Redirs {
		if err := addRedirect(asm, redirect); err != nil {
			return err
		}
	}
	return nil
}

func addRedirect(asm *assembler, redirect *syntax.Redirect) error {
	from := ""
	if redirect.N != nil {
		from = redirect.N.Value
	}

	if redirect.Word == nil {
		return unsupported(redirect, "redirection without a file")
	}
	to, err := evalWord(redirect.Word)
	if err != nil {
		return err
	}

	switch {
	case redirect.Op == syntax.RdrIn && (from == "" || from == "0"):
		return asm.redirectInput(to)

	case (redirect.Op == syntax.RdrOut || redirect.Op == syntax.ClbOut) && (from == "" || from == "1"):
		return asm.redirectOutput(to, ModeWrite)
	case redirect.Op == syntax.AppOut && (from == "" || from == "1"):
		return asm.redirectOutput(to, ModeAppend)

	case (redirect.Op == syntax.RdrOut || redirect.Op == syntax.ClbOut) && from == "2":
		return asm.redirectError(to, ModeWrite)
	case redirect.Op == syntax.AppOut && from == "2":
		return asm.redirectError(to, ModeAppend)

	// >& FILE and &> FILE send both stdout and stderr to FILE.
	case redirect.Op == syntax.DplOut && from == "" && !isNumeric(to):
		fallthrough
	case redirect.Op == syntax.RdrAll:
		if err := asm.redirectOutput(to, ModeWrite); err != nil {
			return err
		}
		return asm.redirectError(to, ModeWrite)
	case redirect.Op == syntax.AppAll:
		if err := asm.redirectOutput(to, ModeAppend); err != nil {
			return err
		}
		return asm.redirectError(to, ModeAppend)
	}

	return unsupported(redirect, fmt.Sprintf("redirection %s%s", from, redirect.Op))
}

func evalWord(word *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range word.Parts {
		if err := evalWordPart(&sb, part); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func evalWordPart(sb *strings.Builder, part syntax.WordPart) error {
	switch part := part.(type) {
	case *syntax.Lit:
		sb.WriteString(part.Value)
	case *syntax.SglQuoted:
		if part.Dollar {
			return unsupported(part, "$'' string")
		}
		sb.WriteString(part.Value)
	case *syntax.DblQuoted:
		if part.Dollar {
			return unsupported(part, `$"" string`)
		}
		for _, sub := range part.Parts {
			if err := evalWordPart(sb, sub); err != nil {
				return err
			}
		}
	default:
		return unsupported(part, "expansion")
	}
	return nil
}

func unsupported(node syntax.Node, what string) error {
	return fmt.Errorf("%w: %s at column %d", ErrUnsupported, what, node.Pos().Col())
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
