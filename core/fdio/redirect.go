package fdio

import (
	"fmt"
	"os"

	"github.com/josephlewis42/msh/core/line"
	"golang.org/x/sys/unix"
)

// Redirect opens the redirection target and binds it onto the stream's
// descriptor in the current process, then releases the opened file; the
// rebound descriptor keeps it open. Only call it inside a Save/Restore
// scope.
func Redirect(stream *os.File, r *line.Redirect) error {
	fd, err := Open(r)
	if err != nil {
		return err
	}
	defer fd.Close()

	if err := unix.Dup2(int(fd.Fd()), int(stream.Fd())); err != nil {
		return fmt.Errorf("redirect %s: %w", stream.Name(), err)
	}
	return nil
}

// SharesOutput reports whether stdout and stderr go to the same file, as
// with "&> file". The file must then be opened once.
func SharesOutput(p *line.Pipeline) bool {
	return p.Error != nil && p.Output != nil && *p.Error == *p.Output
}

// RedirectAll applies the pipeline's redirections to the streams in the
// current process. It stops at the first failure.
func RedirectAll(streams Streams, p *line.Pipeline) error {
	shared := SharesOutput(p)

	// Error first so later failures are reported to the error file.
	if p.Error != nil && !shared {
		if err := Redirect(streams.Stderr(), p.Error); err != nil {
			return err
		}
	}
	if p.Input != nil {
		if err := Redirect(streams.Stdin(), p.Input); err != nil {
			return err
		}
	}
	if p.Output != nil {
		if err := Redirect(streams.Stdout(), p.Output); err != nil {
			return err
		}
	}
	if shared {
		if err := unix.Dup2(int(streams.Stdout().Fd()), int(streams.Stderr().Fd())); err != nil {
			return fmt.Errorf("redirect %s: %w", streams.Stderr().Name(), err)
		}
	}
	return nil
}
