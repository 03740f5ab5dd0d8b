package pipeline

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/josephlewis42/msh/core/fdio"
	"github.com/josephlewis42/msh/core/line"
)

// stage is one command of a pipeline and the descriptors wired to it.
type stage struct {
	cmd line.Command

	stdin, stdout, stderr *os.File

	// owned are the files the parent opened for this stage alone and closes
	// as soon as the child holds its own copies.
	owned []*os.File

	// err is set if the stage can't run.
	err error
	// quiet stages don't report err, another stage already did.
	quiet bool

	proc *exec.Cmd
}

func (s *stage) own(f *os.File) *os.File {
	s.owned = append(s.owned, f)
	return f
}

// release closes every descriptor the parent holds for the stage.
func (s *stage) release() {
	for _, f := range s.owned {
		logClose(f, f.Name())
	}
	s.owned = nil
}

// report writes the stage's failure to its own stderr.
func (s *stage) report(err error) {
	if s.quiet || s.stderr == nil {
		return
	}
	fmt.Fprintln(s.stderr, err)
}

// wire allocates all N-1 pipes up front and binds every stage's streams:
// stage i reads from pipe i-1 and writes to pipe i, the first and last
// stages fall back to the saved streams unless redirected, and the error
// redirection is shared by all stages. Pipe ends are owned by exactly one
// stage each. lineFiles are shared by several stages and must be closed
// once every stage has started.
func wire(saved fdio.Streams, p *line.Pipeline) (stages []*stage, lineFiles []*os.File, err error) {
	n := len(p.Commands)

	readers := make([]*os.File, n-1)
	writers := make([]*os.File, n-1)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			for j := 0; j < i; j++ {
				logClose(readers[j], "pipe")
				logClose(writers[j], "pipe")
			}
			return nil, nil, fmt.Errorf("%w: pipe: %v", ErrFork, err)
		}
		readers[i], writers[i] = r, w
	}

	var errFile *os.File
	var errErr error
	if p.Error != nil {
		if errFile, errErr = fdio.Open(p.Error); errFile != nil {
			lineFiles = append(lineFiles, errFile)
		}
	}

	for i, cmd := range p.Commands {
		s := &stage{cmd: cmd}
		stages = append(stages, s)

		s.stdin = saved.Stdin()
		if i > 0 {
			s.stdin = s.own(readers[i-1])
		}
		s.stdout = saved.Stdout()
		if i < n-1 {
			s.stdout = s.own(writers[i])
		}
		s.stderr = saved.Stderr()

		if errErr != nil {
			// Every stage needs the error file, report the failure once.
			s.err = errErr
			s.quiet = i > 0
			continue
		}
		if errFile != nil {
			s.stderr = errFile
		}

		if i == 0 && p.Input != nil {
			fd, err := fdio.Open(p.Input)
			if err != nil {
				s.err = err
				continue
			}
			s.stdin = s.own(fd)
		}

		if i == n-1 && p.Output != nil {
			if fdio.SharesOutput(p) {
				s.stdout = errFile
				continue
			}
			fd, err := fdio.Open(p.Output)
			if err != nil {
				s.err = err
				continue
			}
			s.stdout = s.own(fd)
		}
	}

	return stages, lineFiles, nil
}
