// Package line holds the parsed form of a single command line: an ordered
// pipeline of commands plus the redirections that apply to it.
package line

import (
	"errors"
	"strings"
)

// Mode is the direction a redirected file is opened with.
type Mode int

const (
	// ModeRead opens the file for reading.
	ModeRead Mode = iota
	// ModeWrite creates or truncates the file for writing.
	ModeWrite
	// ModeAppend creates the file if needed and appends to it.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "<"
	case ModeWrite:
		return ">"
	case ModeAppend:
		return ">>"
	default:
		return "?"
	}
}

var (
	ErrEmptyPipeline = errors.New("pipeline has no commands")
	ErrEmptyCommand  = errors.New("command has no arguments")
	ErrEmptyPath     = errors.New("redirection has no file name")
)

// Redirect binds one standard stream to a file.
type Redirect struct {
	Path string
	Mode Mode
}

// Command is a single program invocation. Args[0] is the program name.
type Command struct {
	Args []string
}

// Name gets the program name of the command.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Pipeline is one parsed command line.
type Pipeline struct {
	Commands []Command

	// Input is applied to the first command only.
	Input *Redirect
	// Output is applied to the last command only.
	Output *Redirect
	// Error is applied to every command, stderr isn't chained through pipes.
	Error *Redirect

	// Background is set when the line ended in '&'. It is reported but never
	// changes how the line is scheduled.
	Background bool
}

// Validate checks the structural invariants of the pipeline.
func (p *Pipeline) Validate() error {
	if len(p.Commands) == 0 {
		return ErrEmptyPipeline
	}
	for _, cmd := range p.Commands {
		if len(cmd.Args) == 0 || cmd.Args[0] == "" {
			return ErrEmptyCommand
		}
	}
	for _, r := range []*Redirect{p.Input, p.Output, p.Error} {
		if r != nil && r.Path == "" {
			return ErrEmptyPath
		}
	}
	return nil
}

// First gets the command that receives the input redirection.
func (p *Pipeline) First() Command {
	return p.Commands[0]
}

// Last gets the command that receives the output redirection.
func (p *Pipeline) Last() Command {
	return p.Commands[len(p.Commands)-1]
}

// Names lists the program name of every command in order.
func (p *Pipeline) Names() []string {
	var out []string
	for _, cmd := range p.Commands {
		out = append(out, cmd.Name())
	}
	return out
}

// String renders the pipeline in canonical shell syntax.
func (p *Pipeline) String() string {
	var parts []string
	for i, cmd := range p.Commands {
		var words []string
		for _, arg := range cmd.Args {
			words = append(words, quote(arg))
		}
		if i == 0 && p.Input != nil {
			words = append(words, "<", quote(p.Input.Path))
		}
		if i == len(p.Commands)-1 && p.Output != nil {
			words = append(words, p.Output.Mode.String(), quote(p.Output.Path))
		}
		if i == 0 && p.Error != nil {
			words = append(words, "2"+p.Error.Mode.String(), quote(p.Error.Path))
		}
		parts = append(parts, strings.Join(words, " "))
	}

	out := strings.Join(parts, " | ")
	if p.Background {
		out += " &"
	}
	return out
}

const metacharacters = "|&;<>()$`\\\"' \t\n*?[#~="

// quote single quotes words that would otherwise be split or expanded.
func quote(word string) string {
	if word != "" && !strings.ContainsAny(word, metacharacters) {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}
