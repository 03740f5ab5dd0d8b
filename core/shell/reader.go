package shell

import (
	"io"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/msh/core/config"
	"github.com/josephlewis42/msh/core/fdio"
	"github.com/mattn/go-isatty"
)

// LineReader supplies the shell with input lines.
type LineReader interface {
	SetPrompt(prompt string)
	// Readline returns the next line without its newline, or io.EOF.
	Readline() (string, error)
	Close() error
}

// NewLineReader picks a reader for the streams: line editing for terminals
// and an unbuffered reader otherwise, so children started by the shell see
// the rest of the input.
func NewLineReader(cfg *config.Configuration, streams fdio.Streams) (LineReader, error) {
	if !isatty.IsTerminal(streams.Stdin().Fd()) {
		return NewPlainReader(streams.Stdin(), streams.Stdout()), nil
	}

	rlCfg := &readline.Config{
		Stdin:       readline.NewCancelableStdin(streams.Stdin()),
		Stdout:      streams.Stdout(),
		Stderr:      streams.Stderr(),
		HistoryFile: cfg.HistoryPath(),
	}
	if err := rlCfg.Init(); err != nil {
		return nil, err
	}

	instance, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}
	return &readlineReader{instance}, nil
}

type readlineReader struct {
	*readline.Instance
}

func (r *readlineReader) ResetHistory() {
	r.Operation.ResetHistory()
}

// PlainReader reads lines one byte at a time and writes the prompt before
// every read.
type PlainReader struct {
	in     io.Reader
	out    io.Writer
	prompt string
}

var _ LineReader = (*PlainReader)(nil)

// NewPlainReader creates a reader over in that prompts on out.
func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	return &PlainReader{in: in, out: out}
}

func (p *PlainReader) SetPrompt(prompt string) {
	p.prompt = prompt
}

func (p *PlainReader) Readline() (string, error) {
	if p.prompt != "" {
		io.WriteString(p.out, p.prompt)
	}

	var line []byte
	b := make([]byte, 1)
	for {
		n, err := p.in.Read(b)
		if n == 1 {
			if b[0] == '\n' {
				return string(line), nil
			}
			line = append(line, b[0])
			continue
		}
		if err == io.EOF && len(line) > 0 {
			return string(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (p *PlainReader) Close() error {
	return nil
}
