// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Printer writes styled output to a pair of streams
type Printer struct {
	Out io.Writer
	Err io.Writer

	// Confirm asks a yes/no question. Defaults to a survey prompt.
	Confirm func(question string) (bool, error)
}

// NewPrinter creates a printer on stdout and stderr
func NewPrinter() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr, Confirm: AskConfirm}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintln(p.Err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, SecondaryStyle.Render(fmt.Sprintf(format, args...)))
}

// Title prints a section title
func (p *Printer) Title(title string) {
	fmt.Fprintln(p.Out, TitleStyle.Render(title))
}

// Plain prints unstyled text followed by a newline
func (p *Printer) Plain(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Table prints a table using pterm
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(p.Out).WithData(data).Render()
}

// Markdown renders markdown content
func (p *Printer) Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(p.Out, out)
	return err
}

// State renders a colored migration state label
func State(applied bool) string {
	if applied {
		return color.New(color.FgGreen, color.Bold).Sprint("applied")
	}
	return color.New(color.FgYellow).Sprint("pending")
}

// AskConfirm prompts on the terminal with a default of no
func AskConfirm(question string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: question, Default: false}, &ok)
	return ok, err
}
