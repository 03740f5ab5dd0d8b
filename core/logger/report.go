package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int               `json:"log_entries"`
	Sessions   StrCounter        `json:"sessions"`
	Pipeline   RunPipelineReport `json:"pipeline_report"`
	Builtin    RunBuiltinReport  `json:"builtin_report"`
	ParseError ParseErrorReport  `json:"parse_error_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	if le.SessionID != "" {
		r.Sessions.Increment(le.SessionID)
	}

	switch {
	case le.RunPipeline != nil:
		r.Pipeline.update(le.RunPipeline)
	case le.RunBuiltin != nil:
		r.Builtin.update(le.RunBuiltin)
	case le.ParseError != nil:
		r.ParseError.update(le.ParseError)
	}
}

type RunPipelineReport struct {
	Count int `json:"count"`
	// Stages counts pipelines by their number of commands.
	Stages StrCounter `json:"stages"`
	// CommandNames counts every program that was started.
	CommandNames StrCounter `json:"command_names"`
	// NotFound counts programs that couldn't be executed.
	NotFound StrCounter `json:"not_found"`
	// Statuses counts the status of the last command of each line.
	Statuses   StrCounter `json:"statuses"`
	Background int        `json:"background"`
}

func (r *RunPipelineReport) update(rp *RunPipeline) {
	r.Count++
	r.Stages.Increment(fmt.Sprintf("%d", len(rp.Stages)))
	if rp.Background {
		r.Background++
	}

	for _, stage := range rp.Stages {
		if len(stage.Command) == 0 {
			continue
		}
		if stage.Pid == 0 && strings.HasSuffix(stage.Error, ": not found") {
			r.NotFound.Increment(stage.Command[0])
			continue
		}
		if stage.Pid == 0 {
			continue
		}
		r.CommandNames.Increment(stage.Command[0])
	}

	if n := len(rp.Stages); n > 0 {
		r.Statuses.Increment(fmt.Sprintf("%d", rp.Stages[n-1].Status))
	}
}

type RunBuiltinReport struct {
	CommandNames StrCounter `json:"command_names"`
	Failures     StrCounter `json:"failures"`
}

func (r *RunBuiltinReport) update(rb *RunBuiltin) {
	if len(rb.Command) == 0 {
		return
	}
	r.CommandNames.Increment(rb.Command[0])
	if rb.Status != 0 {
		r.Failures.Increment(rb.Command[0])
	}
}

type ParseErrorReport struct {
	Count  int        `json:"count"`
	Errors StrCounter `json:"errors"`
}

func (r *ParseErrorReport) update(pe *ParseError) {
	r.Count++
	r.Errors.Increment(pe.Error)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for the key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}
