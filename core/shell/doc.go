// Package shell is the read-parse-dispatch loop of the interpreter.
//
// Loosely following
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
//
// 1. The shell reads a line from its input, printing the prompt first when
// the input is a terminal or a plain file.
//
// 2. The line is parsed into a pipeline of simple commands with the
// redirections of the line; blank lines are skipped.
//
// 3. If the first command names a builtin it runs in the shell process with
// the redirections applied to the shell's own streams, which are restored
// afterwards. Builtins later in a pipeline are looked up on the PATH like
// any other program.
//
// 4. Otherwise every command is started as a child process, connected by
// pipes, and the shell waits for all of them before reading the next line.
package shell
