// Package pipeline runs parsed command lines as chains of operating system
// processes connected by pipes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/josephlewis42/msh/core/fdio"
	"github.com/josephlewis42/msh/core/line"
)

// ExitFailure is the status of a stage that couldn't be started.
const ExitFailure = 1

// ErrFork is returned when the system refuses to create more processes or
// pipes. The interpreter can't recover from it.
var ErrFork = errors.New("cannot create process")

// Status is the outcome of one stage of a pipeline.
type Status struct {
	// Name is the program name of the stage.
	Name string
	// Pid is the process ID, 0 if the stage never started.
	Pid int
	// Code is the exit status, signals are reported as 128+signal.
	Code int
	// Err is set if the stage couldn't start or exited abnormally.
	Err error
}

// Result holds the status of every stage in command order.
type Result struct {
	Stages []Status
}

// Code is the status of the line: the status of the last stage.
func (r *Result) Code() int {
	if r == nil || len(r.Stages) == 0 {
		return 0
	}
	return r.Stages[len(r.Stages)-1].Code
}

// Pids lists the process IDs of the stages that started.
func (r *Result) Pids() []int {
	var out []int
	for _, s := range r.Stages {
		if s.Pid != 0 {
			out = append(out, s.Pid)
		}
	}
	return out
}

// Builder starts pipelines against a set of standard streams.
type Builder struct {
	// Streams are the interpreter's standard streams, the first command reads
	// from Stdin and the last writes to Stdout unless redirected.
	Streams fdio.Streams
	// Env is the environment of the children, nil inherits the process's.
	Env []string
	// StartProcess launches a child, nil uses (*exec.Cmd).Start.
	StartProcess func(cmd *exec.Cmd) error

	mu      sync.Mutex
	running map[int]*exec.Cmd
}

// NewBuilder creates a builder over the given streams.
func NewBuilder(streams fdio.Streams) *Builder {
	return &Builder{Streams: streams}
}

// Execute runs every command of the pipeline and waits for all of them. The
// streams are saved before anything starts and restored once every child
// has been reaped. The returned error is only non-nil when the line couldn't
// be run at all.
func (b *Builder) Execute(ctx context.Context, p *line.Pipeline) (_ *Result, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	saved, err := fdio.Save(b.Streams)
	if err != nil {
		return nil, err
	}
	defer func() {
		if restoreErr := saved.Restore(); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	stages, lineFiles, err := wire(saved, p)
	if err != nil {
		return nil, err
	}
	var forkErr error
	for _, s := range stages {
		if err := b.start(ctx, s); err != nil {
			forkErr = err
			break
		}
	}
	// The children hold their own copies now, a pipe end left open here
	// would keep the downstream reader from ever seeing EOF.
	closeAll(stages)
	for _, f := range lineFiles {
		logClose(f, f.Name())
	}

	result := &Result{}
	for _, s := range stages {
		result.Stages = append(result.Stages, b.wait(s))
	}

	if forkErr != nil {
		return result, forkErr
	}
	return result, nil
}

// Wait blocks until every child started by the builder and not yet reaped
// has exited, so no child outlives the interpreter. It must not run
// concurrently with Execute. Execute already reaps its own children, so
// this only has work to do if a caller starts lines without waiting for
// them; the exit builtin calls it before ending the interpreter.
func (b *Builder) Wait() {
	b.mu.Lock()
	var cmds []*exec.Cmd
	for _, cmd := range b.running {
		cmds = append(cmds, cmd)
	}
	b.mu.Unlock()

	for _, cmd := range cmds {
		cmd.Wait()
		b.untrack(cmd)
	}
}

// Running is the number of children started and not yet reaped.
func (b *Builder) Running() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.running)
}

func (b *Builder) track(cmd *exec.Cmd) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running == nil {
		b.running = make(map[int]*exec.Cmd)
	}
	b.running[cmd.Process.Pid] = cmd
}

func (b *Builder) untrack(cmd *exec.Cmd) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.running, cmd.Process.Pid)
}

// start launches a single stage. Failures local to the stage are recorded on
// it and reported to its stderr; only a fork failure is returned.
func (b *Builder) start(ctx context.Context, s *stage) error {
	// Whatever happens, the parent never needs its copies after this.
	defer s.release()

	if s.err != nil {
		s.report(s.err)
		return nil
	}

	cmd := exec.CommandContext(ctx, s.cmd.Args[0], s.cmd.Args[1:]...)
	cmd.Env = b.Env
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	startProcess := b.StartProcess
	if startProcess == nil {
		startProcess = (*exec.Cmd).Start
	}
	if err := startProcess(cmd); err != nil {
		if isForkFailure(err) {
			s.err = fmt.Errorf("%w: %v", ErrFork, err)
			return s.err
		}
		s.err = &NotFoundError{Name: s.cmd.Name(), Err: err}
		s.report(s.err)
		return nil
	}

	s.proc = cmd
	b.track(cmd)
	return nil
}

func (b *Builder) wait(s *stage) Status {
	status := Status{Name: s.cmd.Name()}
	if s.proc == nil {
		status.Code = ExitFailure
		status.Err = s.err
		return status
	}

	status.Pid = s.proc.Process.Pid
	err := s.proc.Wait()
	b.untrack(s.proc)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		status.Code = exitCode(exitErr.ProcessState)
		status.Err = err
	default:
		status.Code = ExitFailure
		status.Err = err
	}
	return status
}

func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func isForkFailure(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM)
}

// NotFoundError is reported when a stage's program can't be executed.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func closeAll(stages []*stage) {
	for _, s := range stages {
		s.release()
	}
}

func logClose(c io.Closer, what string) {
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("closing %s: %v", what, err)
	}
}
