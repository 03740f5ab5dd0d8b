package fdio

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Saved holds duplicates of a set of streams taken before a command line
// runs. Its Stdin/Stdout/Stderr are the original targets even if the
// streams were rebound afterwards.
type Saved struct {
	orig Streams
	dups [3]*os.File

	once       sync.Once
	restoreErr error
}

var _ Streams = (*Saved)(nil)

func (s *Saved) Stdin() *os.File  { return s.dups[0] }
func (s *Saved) Stdout() *os.File { return s.dups[1] }
func (s *Saved) Stderr() *os.File { return s.dups[2] }

// dup duplicates the descriptor with close-on-exec set so the copy never
// leaks into children.
func dup(f *os.File) (*os.File, error) {
	fd, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("dup %s: %w", f.Name(), err)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// Save captures the current targets of the streams. Every successful Save
// must be paired with exactly one Restore.
func Save(streams Streams) (*Saved, error) {
	saved := &Saved{orig: streams}
	for i, f := range streamList(streams) {
		d, err := dup(f)
		if err != nil {
			saved.closeDups()
			return nil, err
		}
		saved.dups[i] = d
	}
	return saved, nil
}

// Restore rebinds the streams to the targets captured by Save and releases
// the duplicates. Calls after the first are no-ops returning the same error.
func (s *Saved) Restore() error {
	s.once.Do(func() {
		for i, f := range streamList(s.orig) {
			if err := unix.Dup2(int(s.dups[i].Fd()), int(f.Fd())); err != nil && s.restoreErr == nil {
				s.restoreErr = fmt.Errorf("restore %s: %w", f.Name(), err)
			}
		}
		s.closeDups()
	})
	return s.restoreErr
}

func (s *Saved) closeDups() {
	for i, d := range s.dups {
		if d != nil {
			d.Close()
			s.dups[i] = nil
		}
	}
}

func streamList(s Streams) [3]*os.File {
	return [3]*os.File{s.Stdin(), s.Stdout(), s.Stderr()}
}
