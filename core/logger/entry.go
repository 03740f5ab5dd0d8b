package logger

// LogEntry is one line of the event log. Exactly one event field is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunPipeline *RunPipeline `json:"run_pipeline,omitempty"`
	RunBuiltin  *RunBuiltin  `json:"run_builtin,omitempty"`
	ParseError  *ParseError  `json:"parse_error,omitempty"`
}

// Event is a payload of a LogEntry.
type Event interface {
	setOn(le *LogEntry)
}

// StageStatus is the outcome of one command of a pipeline.
type StageStatus struct {
	Command []string `json:"command"`
	Pid     int      `json:"pid,omitempty"`
	Status  int      `json:"status"`
	Error   string   `json:"error,omitempty"`
}

// RunPipeline is logged after a pipeline of external commands finished.
type RunPipeline struct {
	Line           string        `json:"line"`
	Stages         []StageStatus `json:"stages"`
	Background     bool          `json:"background,omitempty"`
	DurationMicros int64         `json:"duration_micros"`
}

func (e *RunPipeline) setOn(le *LogEntry) { le.RunPipeline = e }

// RunBuiltin is logged after a builtin ran in the shell process.
type RunBuiltin struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
}

func (e *RunBuiltin) setOn(le *LogEntry) { le.RunBuiltin = e }

// ParseError is logged for lines that couldn't be run.
type ParseError struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

func (e *ParseError) setOn(le *LogEntry) { le.ParseError = e }
