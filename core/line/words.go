package line

import (
	"fmt"

	"github.com/anmitsu/go-shlex"
)

// WordParser splits lines into words with POSIX quoting rules and treats
// operators as standalone words, e.g. "cat < in | wc -l > out". Quoted
// operators are still operators.
type WordParser struct{}

var _ Parser = (*WordParser)(nil)

func isOperator(word string) bool {
	switch word {
	case "|", "<", ">", ">>", "2>", "2>>", ">&", "&>", "&":
		return true
	default:
		return false
	}
}

// Parse implements Parser.
func (*WordParser) Parse(text string) (*Pipeline, error) {
	words, err := shlex.Split(text, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(words) == 0 {
		return nil, nil
	}

	asm := &assembler{}
	for i := 0; i < len(words); i++ {
		word := words[i]
		if !isOperator(word) {
			asm.addArg(word)
			continue
		}

		switch word {
		case "|":
			if err := asm.endCommand(false); err != nil {
				return nil, err
			}
			continue
		case "&":
			if i != len(words)-1 {
				return nil, fmt.Errorf("%w: '&' must end the line", ErrUnsupported)
			}
			asm.pipeline.Background = true
			continue
		}

		if i+1 >= len(words) || isOperator(words[i+1]) {
			return nil, fmt.Errorf("%w: expected a file name after %q", ErrSyntax, word)
		}
		i++
		target := words[i]

		switch word {
		case "<":
			err = asm.redirectInput(target)
		case ">":
			err = asm.redirectOutput(target, ModeWrite)
		case ">>":
			err = asm.redirectOutput(target, ModeAppend)
		case "2>":
			err = asm.redirectError(target, ModeWrite)
		case "2>>":
			err = asm.redirectError(target, ModeAppend)
		case ">&", "&>":
			if err = asm.redirectOutput(target, ModeWrite); err == nil {
				err = asm.redirectError(target, ModeWrite)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if err := asm.endCommand(true); err != nil {
		return nil, err
	}
	return asm.finish()
}
