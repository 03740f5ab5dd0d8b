// Package logger records an event for every command line the shell runs as
// newline delimited JSON and aggregates those events into reports.
package logger
