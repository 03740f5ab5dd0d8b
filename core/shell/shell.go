package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/msh/core/builtin"
	"github.com/josephlewis42/msh/core/config"
	"github.com/josephlewis42/msh/core/fdio"
	"github.com/josephlewis42/msh/core/line"
	"github.com/josephlewis42/msh/core/logger"
	"github.com/josephlewis42/msh/core/pipeline"
)

// StatusSyntax is the status of a line that couldn't be parsed.
const StatusSyntax = 2

type Shell struct {
	Config   *config.Configuration
	Parser   line.Parser
	Builder  *pipeline.Builder
	Builtins *builtin.Registry
	Streams  fdio.Streams
	Events   *logger.SessionLogger
	Reader   LineReader

	history  []string
	lastRet  int
	quit     bool
	exitCode int
}

// New creates a shell over the streams. The caller sets Reader before
// calling Run. A nil events logger discards events.
func New(cfg *config.Configuration, streams fdio.Streams, events *logger.SessionLogger) (*Shell, error) {
	parser, err := line.NewParser(line.Syntax(cfg.Syntax))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = logger.NewNopLogger().NewSession()
	}

	return &Shell{
		Config:   cfg,
		Parser:   parser,
		Builder:  pipeline.NewBuilder(streams),
		Builtins: builtin.AllBuiltins,
		Streams:  streams,
		Events:   events,
	}, nil
}

// Exited reports whether a builtin asked the shell to stop.
func (s *Shell) Exited() bool {
	return s.quit
}

// ExitCode is the status the shell should exit with: the code passed to exit
// or the status of the last line.
func (s *Shell) ExitCode() int {
	if s.quit {
		return s.exitCode
	}
	return s.lastRet
}

// Run reads and runs lines until end of input or exit. It returns the
// shell's exit status.
func (s *Shell) Run(ctx context.Context) int {
	defer s.Builder.Wait()

	for !s.quit {
		s.Reader.SetPrompt(s.prompt())
		text, err := s.Reader.Readline()

		switch {
		case err == io.EOF:
			return 0

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return pipeline.ExitFailure

		case strings.TrimSpace(text) == "":
			continue

		default:
			s.history = append(s.history, text)
			s.RunCommand(ctx, text)
		}
	}

	return s.exitCode
}

// RunCommand runs a single line and returns its status.
func (s *Shell) RunCommand(ctx context.Context, text string) int {
	if max := s.Config.MaxLineLength; len(text) > max {
		s.parseError(text, fmt.Errorf("line too long (max %d bytes)", max))
		return s.lastRet
	}

	p, err := s.Parser.Parse(text)
	if err != nil {
		s.parseError(text, err)
		return s.lastRet
	}
	if p == nil {
		return s.lastRet
	}

	if s.Builtins.IsBuiltin(p.First().Name()) {
		s.lastRet = s.runBuiltin(p)
	} else {
		s.lastRet = s.runPipeline(ctx, text, p)
	}
	return s.lastRet
}

func (s *Shell) parseError(text string, err error) {
	fmt.Fprintf(s.Streams.Stderr(), "msh: %v\n", err)
	s.record(&logger.ParseError{Line: text, Error: err.Error()})
	s.lastRet = StatusSyntax
}

// runBuiltin runs the first command of the line in the shell process. The
// redirections rebind the shell's own streams for the duration of the call.
func (s *Shell) runBuiltin(p *line.Pipeline) int {
	if len(p.Commands) > 1 {
		log.Printf("builtin %q in a pipeline, ignoring %d following commands", p.First().Name(), len(p.Commands)-1)
	}

	saved, err := fdio.Save(s.Streams)
	if err != nil {
		fmt.Fprintf(s.Streams.Stderr(), "msh: %v\n", err)
		return pipeline.ExitFailure
	}

	// The output file belongs to the last command, which isn't run.
	redirects := *p
	if len(p.Commands) > 1 {
		redirects.Output = nil
	}

	status := pipeline.ExitFailure
	if err := fdio.RedirectAll(s.Streams, &redirects); err != nil {
		fmt.Fprintf(s.Streams.Stderr(), "msh: %v\n", err)
	} else {
		status = s.Builtins.Run(s.builtinEnv(), p.First().Args)
	}

	if err := saved.Restore(); err != nil {
		log.Printf("restoring streams: %v", err)
	}

	s.record(&logger.RunBuiltin{Command: p.First().Args, Status: status})
	return status
}

func (s *Shell) builtinEnv() *builtin.Env {
	return &builtin.Env{
		Stdin:   s.Streams.Stdin(),
		Stdout:  s.Streams.Stdout(),
		Stderr:  s.Streams.Stderr(),
		HomeEnv: s.Config.HomeEnv,
		History: (*shellHistory)(s),
		Wait:    s.Builder.Wait,
		Exit: func(code int) {
			s.quit = true
			s.exitCode = code
		},
	}
}

func (s *Shell) runPipeline(ctx context.Context, text string, p *line.Pipeline) int {
	if p.Background {
		log.Printf("background execution isn't supported, running %q in the foreground", text)
	}

	start := time.Now()
	result, err := s.Builder.Execute(ctx, p)
	duration := time.Since(start)

	if err != nil {
		fmt.Fprintf(s.Streams.Stderr(), "msh: %v\n", err)
		if errors.Is(err, pipeline.ErrFork) {
			s.quit = true
			s.exitCode = pipeline.ExitFailure
		}
	}

	event := &logger.RunPipeline{
		Line:           text,
		Background:     p.Background,
		DurationMicros: duration.Microseconds(),
	}
	if result == nil {
		s.record(event)
		return pipeline.ExitFailure
	}

	for i, stage := range result.Stages {
		status := logger.StageStatus{
			Command: p.Commands[i].Args,
			Pid:     stage.Pid,
			Status:  stage.Code,
		}
		if stage.Err != nil {
			status.Error = stage.Err.Error()
		}
		event.Stages = append(event.Stages, status)
	}
	s.record(event)

	return result.Code()
}

func (s *Shell) record(event logger.Event) {
	if err := s.Events.Record(event); err != nil {
		log.Printf("recording event: %v", err)
	}
}

// shellHistory exposes the shell's lines to the history builtin.
type shellHistory Shell

var _ builtin.History = (*shellHistory)(nil)

func (h *shellHistory) Entries() []string {
	return h.history
}

type historyResetter interface {
	ResetHistory()
}

func (h *shellHistory) Clear() {
	h.history = nil
	if r, ok := h.Reader.(historyResetter); ok {
		r.ResetHistory()
	}
}
