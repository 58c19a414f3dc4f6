package ui

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

var errNoProgram = errors.New("program not set")

// Pager shows long text in ov, handing it the terminal while it runs
type Pager struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewPager creates a pager; SetProgram must be called before Show
func NewPager() *Pager {
	return &Pager{}
}

// SetProgram sets the program reference for terminal management
func (p *Pager) SetProgram(program *tea.Program) {
	p.program = program
}

// Available reports whether the pager can take over the terminal
func (p *Pager) Available() bool {
	return p.program != nil
}

// Show displays content in ov and blocks until the user quits it
func (p *Pager) Show(content string) error {
	if p.program == nil {
		return errNoProgram
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Don't write the document back to our screen on exit
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// showCmd returns a command that runs the pager, pausing rendering meanwhile
func (p *Pager) showCmd(title, content string) tea.Cmd {
	program := p.program
	return func() tea.Msg {
		program.Send(pauseRenderingMsg{})
		err := p.Show(content)
		program.Send(resumeRenderingMsg{})
		return pagerMsg{title: title, err: err}
	}
}
