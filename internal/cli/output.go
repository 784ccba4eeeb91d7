package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

// Printer writes styled status lines for humans.
type Printer struct {
	Out io.Writer
}

func (p Printer) line(style lipgloss.Style, prefix, format string, args ...any) {
	fmt.Fprintln(p.Out, style.Render(prefix+" "+fmt.Sprintf(format, args...)))
}

func (p Printer) Success(format string, args ...any) { p.line(successStyle, "✔", format, args...) }
func (p Printer) Warn(format string, args ...any)    { p.line(warnStyle, "!", format, args...) }
func (p Printer) Error(format string, args ...any)   { p.line(errorStyle, "✘", format, args...) }
func (p Printer) Info(format string, args ...any)    { p.line(infoStyle, "i", format, args...) }

func (p Printer) Field(label, value string) {
	fmt.Fprintf(p.Out, "%s %s\n", labelStyle.Render(label+":"), value)
}
