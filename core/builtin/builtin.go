// Package builtin holds the commands that run inside the interpreter's own
// process because their effect would be lost in a child.
package builtin

import (
	"fmt"
	"io"
	"sort"
)

// DefaultHomeEnv is the variable cd falls back to without an argument.
const DefaultHomeEnv = "HOME"

// History gives builtins access to the interpreter's line history.
type History interface {
	Entries() []string
	Clear()
}

// Env is the interpreter state a builtin may read or change.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// HomeEnv names the environment variable holding the home directory.
	HomeEnv string
	History History

	// Wait blocks until every child the interpreter started has exited.
	Wait func()
	// Exit ends the interpreter with the given status once the current line
	// is done.
	Exit func(code int)
}

func (e *Env) homeEnv() string {
	if e.HomeEnv == "" {
		return DefaultHomeEnv
	}
	return e.HomeEnv
}

// Builtin is a command run in the interpreter's process. args[0] is the
// command name. It returns the exit status.
type Builtin interface {
	Main(env *Env, args []string) int
}

// Func adapts a function to a Builtin.
type Func func(env *Env, args []string) int

func (f Func) Main(env *Env, args []string) int {
	return f(env, args)
}

var _ Builtin = (Func)(nil)

// Registry maps command names to builtins.
type Registry struct {
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds or replaces a builtin.
func (r *Registry) Register(name string, b Builtin) {
	r.builtins[name] = b
}

// Lookup finds the builtin with the given name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r.builtins[name]
	return b, ok
}

// IsBuiltin reports whether name must run in the interpreter's process.
func (r *Registry) IsBuiltin(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// Names lists the registered builtins in sorted order.
func (r *Registry) Names() []string {
	var out []string
	for name := range r.builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run executes the builtin named by args[0].
func (r *Registry) Run(env *Env, args []string) int {
	if len(args) == 0 {
		return 0
	}
	b, ok := r.Lookup(args[0])
	if !ok {
		fmt.Fprintf(env.Stderr, "%s: not a builtin\n", args[0])
		return 1
	}
	return b.Main(env, args)
}

// AllBuiltins holds the builtins the interpreter starts with.
var AllBuiltins = NewRegistry()

func init() {
	AllBuiltins.Register("cd", Func(Cd))
	AllBuiltins.Register("exit", Func(Exit))
	AllBuiltins.Register("pwd", Func(Pwd))
	AllBuiltins.Register("history", Func(HistoryCmd))
	AllBuiltins.Register("help", Func(func(env *Env, args []string) int {
		return Help(AllBuiltins, env, args)
	}))
}
