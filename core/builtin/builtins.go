package builtin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pborman/getopt/v2"
)

// Cd is the cd shell builtin. Without an argument it changes to the home
// directory. Failures leave the working directory unchanged.
func Cd(env *Env, args []string) int {
	switch len(args) {
	case 1:
		home := os.Getenv(env.homeEnv())
		if home == "" {
			fmt.Fprintf(env.Stderr, "%s: %s not set\n", args[0], env.homeEnv())
			return 1
		}
		args = append(args[:1:1], home)
		fallthrough
	case 2:
		if err := chdir(args[1]); err != nil {
			fmt.Fprintf(env.Stderr, "%s: %s: %v\n", args[0], args[1], err)
			return 1
		}
	default:
		fmt.Fprintf(env.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

func chdir(dir string) error {
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return pathErr.Err
		}
		return err
	}

	// Children inherit the environment, keep PWD in step with the process.
	if wd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", wd)
	}
	if old != "" {
		os.Setenv("OLDPWD", old)
	}
	return nil
}

// Exit waits for outstanding children, then ends the interpreter.
func Exit(env *Env, args []string) int {
	code := 0
	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(env.Stderr, "%s: %s: numeric argument required\n", args[0], args[1])
			code = 2
			break
		}
		code = n & 0xff
	default:
		fmt.Fprintf(env.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}

	if env.Wait != nil {
		env.Wait()
	}
	if env.Exit != nil {
		env.Exit(code)
	}
	return code
}

// Pwd prints the working directory.
func Pwd(env *Env, args []string) int {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", args[0], err)
		return 1
	}
	fmt.Fprintln(env.Stdout, wd)
	return 0
}

// HistoryCmd is the history shell builtin.
func HistoryCmd(env *Env, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := env.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: history [-c]")
		fmt.Fprintln(w, "Display the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return 2
		}
		return 0
	}

	if env.History == nil {
		return 0
	}
	if *clear {
		env.History.Clear()
		return 0
	}

	for i, line := range env.History.Entries() {
		fmt.Fprintf(env.Stdout, "% 5d  %s\n", i+1, line)
	}
	return 0
}

// Help lists the builtins of the registry.
func Help(r *Registry, env *Env, args []string) int {
	w := env.Stdout
	fmt.Fprintln(w, "These shell commands are defined internally.")
	fmt.Fprintln(w, "They only run in the shell itself when they start a line.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(r.Names(), "\n"))
	return 0
}
