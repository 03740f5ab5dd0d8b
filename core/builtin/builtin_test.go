package builtin

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	entries []string
}

func (f *fakeHistory) Entries() []string { return f.entries }
func (f *fakeHistory) Clear()            { f.entries = nil }

type recorder struct {
	env    *Env
	stdout bytes.Buffer
	stderr bytes.Buffer

	waited   bool
	exitCode *int
}

func newRecorder() *recorder {
	r := &recorder{}
	r.env = &Env{
		Stdout:  &r.stdout,
		Stderr:  &r.stderr,
		HomeEnv: "MSH_TEST_HOME",
		History: &fakeHistory{entries: []string{"ls", "cd /tmp"}},
		Wait:    func() { r.waited = true },
		Exit: func(code int) {
			r.exitCode = &code
		},
	}
	return r
}

// chdirTemp moves into a new temporary directory for the duration of the
// test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	// cd rewrites these, t.Setenv restores them afterwards.
	t.Setenv("PWD", os.Getenv("PWD"))
	t.Setenv("OLDPWD", os.Getenv("OLDPWD"))

	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(orig) })

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return dir
}

func getwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func TestCd(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		dir := chdirTemp(t)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

		r := newRecorder()
		assert.Equal(t, 0, AllBuiltins.Run(r.env, []string{"cd", "sub"}))
		assert.Equal(t, filepath.Join(dir, "sub"), getwd(t))
		assert.Equal(t, filepath.Join(dir, "sub"), os.Getenv("PWD"))
		assert.Equal(t, dir, os.Getenv("OLDPWD"))
	})

	t.Run("home", func(t *testing.T) {
		dir := chdirTemp(t)
		home := filepath.Join(dir, "home")
		require.NoError(t, os.Mkdir(home, 0700))
		t.Setenv("MSH_TEST_HOME", home)

		r := newRecorder()
		assert.Equal(t, 0, Cd(r.env, []string{"cd"}))
		assert.Equal(t, home, getwd(t))
	})

	t.Run("home keeps caller args", func(t *testing.T) {
		dir := chdirTemp(t)
		t.Setenv("MSH_TEST_HOME", dir)

		backing := []string{"cd", "untouched"}
		args := backing[:1]

		r := newRecorder()
		assert.Equal(t, 0, Cd(r.env, args))
		assert.Equal(t, []string{"cd", "untouched"}, backing)
		assert.Len(t, args, 1)
	})

	t.Run("home-unset", func(t *testing.T) {
		dir := chdirTemp(t)
		t.Setenv("MSH_TEST_HOME", "")

		r := newRecorder()
		assert.Equal(t, 1, Cd(r.env, []string{"cd"}))
		assert.Equal(t, "cd: MSH_TEST_HOME not set\n", r.stderr.String())
		assert.Equal(t, dir, getwd(t))
	})

	t.Run("missing", func(t *testing.T) {
		dir := chdirTemp(t)

		r := newRecorder()
		assert.Equal(t, 1, Cd(r.env, []string{"cd", "does-not-exist"}))
		assert.Equal(t, "cd: does-not-exist: no such file or directory\n", r.stderr.String())
		assert.Equal(t, dir, getwd(t))
	})

	t.Run("too-many", func(t *testing.T) {
		dir := chdirTemp(t)

		r := newRecorder()
		assert.Equal(t, 1, Cd(r.env, []string{"cd", "a", "b"}))
		assert.Equal(t, "cd: too many arguments\n", r.stderr.String())
		assert.Equal(t, dir, getwd(t))
	})
}

func TestExit(t *testing.T) {
	cases := map[string]struct {
		args       []string
		wantCode   int
		wantExit   bool
		wantStderr string
	}{
		"default":     {[]string{"exit"}, 0, true, ""},
		"code":        {[]string{"exit", "3"}, 3, true, ""},
		"wraps":       {[]string{"exit", "257"}, 1, true, ""},
		"non-numeric": {[]string{"exit", "x"}, 2, true, "exit: x: numeric argument required\n"},
		"too-many":    {[]string{"exit", "1", "2"}, 1, false, "exit: too many arguments\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			r := newRecorder()
			assert.Equal(t, tc.wantCode, Exit(r.env, tc.args))
			assert.Equal(t, tc.wantStderr, r.stderr.String())

			if !tc.wantExit {
				assert.Nil(t, r.exitCode)
				return
			}
			assert.True(t, r.waited, "exit must wait for children first")
			require.NotNil(t, r.exitCode)
			assert.Equal(t, tc.wantCode, *r.exitCode)
		})
	}
}

func TestPwd(t *testing.T) {
	dir := chdirTemp(t)

	r := newRecorder()
	assert.Equal(t, 0, Pwd(r.env, []string{"pwd"}))
	assert.Equal(t, dir+"\n", r.stdout.String())
}

func TestHistoryCmd(t *testing.T) {
	r := newRecorder()
	assert.Equal(t, 0, HistoryCmd(r.env, []string{"history"}))
	assert.Equal(t, "    1  ls\n    2  cd /tmp\n", r.stdout.String())

	assert.Equal(t, 0, HistoryCmd(r.env, []string{"history", "-c"}))
	assert.Empty(t, r.env.History.Entries())

	assert.Equal(t, 2, HistoryCmd(r.env, []string{"history", "-z"}))
	assert.Contains(t, r.stderr.String(), "usage: history [-c]")
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"cd", "exit", "help", "history", "pwd"}, AllBuiltins.Names())
	assert.True(t, AllBuiltins.IsBuiltin("cd"))
	assert.False(t, AllBuiltins.IsBuiltin("ls"))

	r := newRecorder()
	assert.Equal(t, 1, AllBuiltins.Run(r.env, []string{"ls"}))
	assert.Equal(t, "ls: not a builtin\n", r.stderr.String())

	reg := NewRegistry()
	reg.Register("true", Func(func(*Env, []string) int { return 0 }))
	assert.Equal(t, []string{"true"}, reg.Names())
}

func ExampleHelp() {
	reg := NewRegistry()
	reg.Register("cd", Func(Cd))
	reg.Register("exit", Func(Exit))

	Help(reg, &Env{Stdout: os.Stdout}, []string{"help"})

	// Output: These shell commands are defined internally.
	// They only run in the shell itself when they start a line.
	//
	// cd
	// exit
}
