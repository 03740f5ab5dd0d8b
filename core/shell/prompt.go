package shell

import (
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var promptColor = color.New(color.FgGreen, color.Bold)

func (s *Shell) shouldColor() bool {
	switch s.Config.Color {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		return isatty.IsTerminal(s.Streams.Stdout().Fd())
	}
}

func (s *Shell) prompt() string {
	prompt := s.Config.Prompt
	if !s.shouldColor() {
		return prompt
	}

	c := *promptColor
	c.EnableColor()
	return c.Sprint(prompt)
}
