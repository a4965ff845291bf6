package tui

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles colors status lines. Colors are dropped when w does not support them.
type Styles struct {
	out *termenv.Output
}

func NewStyles(w io.Writer) *Styles {
	return &Styles{out: termenv.NewOutput(w)}
}

func (s *Styles) Success(msg string) string {
	return s.out.String("✔ " + msg).Foreground(s.out.Color("#34d399")).String()
}

func (s *Styles) Failure(msg string) string {
	return s.out.String("✘ " + msg).Foreground(s.out.Color("#fb7185")).String()
}

func (s *Styles) Heading(msg string) string {
	return s.out.String(msg).Bold().Foreground(s.out.Color("#818cf8")).String()
}
