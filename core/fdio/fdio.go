// Package fdio owns every manipulation of the interpreter's standard stream
// descriptors: opening redirection targets, rebinding a stream onto a file
// and saving/restoring the original bindings around a command line.
package fdio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/josephlewis42/msh/core/line"
)

// Streams is a set of standard input, output and error files.
type Streams interface {
	Stdin() *os.File
	Stdout() *os.File
	Stderr() *os.File
}

type files struct {
	stdin, stdout, stderr *os.File
}

var _ Streams = (*files)(nil)

func (f *files) Stdin() *os.File  { return f.stdin }
func (f *files) Stdout() *os.File { return f.stdout }
func (f *files) Stderr() *os.File { return f.stderr }

// Std returns the process's own standard streams.
func Std() Streams {
	return &files{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// NewStreams wraps explicit files, useful for tests and embedding.
func NewStreams(stdin, stdout, stderr *os.File) Streams {
	return &files{stdin: stdin, stdout: stdout, stderr: stderr}
}

// RedirectError is returned when a redirection target can't be opened.
type RedirectError struct {
	Path string
	Err  error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

func flags(mode line.Mode) int {
	switch mode {
	case line.ModeWrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case line.ModeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return os.O_RDONLY
	}
}

// Open opens the file for the redirection. The error names the path and the
// system reason, e.g. "in.txt: no such file or directory".
func Open(r *line.Redirect) (*os.File, error) {
	fd, err := os.OpenFile(r.Path, flags(r.Mode), 0666)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			err = pathErr.Err
		}
		return nil, &RedirectError{Path: r.Path, Err: err}
	}
	return fd, nil
}
