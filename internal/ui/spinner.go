package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// waitModel is the bubbletea model shown while a blocking call runs
type waitModel struct {
	spinner spinner.Model
	styles  *Styles
	phase   string
	start   time.Time
	elapsed time.Duration
	done    <-chan struct{}
	cancel  context.CancelFunc
	quit    bool
}

// workDoneMsg signals the blocking call has returned
type workDoneMsg struct{}

// elapsedMsg refreshes the elapsed time display
type elapsedMsg time.Time

func newWaitModel(phase string, styles *Styles, done <-chan struct{}, cancel context.CancelFunc) waitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return waitModel{
		spinner: s,
		styles:  styles,
		phase:   phase,
		start:   time.Now(),
		done:    done,
		cancel:  cancel,
	}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForDone(m.done), tickElapsed())
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return workDoneMsg{}
	}
}

func tickElapsed() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return elapsedMsg(t)
	})
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			// The call returns once its context is cancelled.
			if m.cancel != nil {
				m.cancel()
			}
			m.phase = "Abbrechen"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case elapsedMsg:
		m.elapsed = time.Time(msg).Sub(m.start)
		return m, tickElapsed()

	case workDoneMsg:
		m.quit = true
		return m, tea.Quit
	}

	return m, nil
}

func (m waitModel) View() string {
	if m.quit {
		return ""
	}
	return WaitingIndicator{
		Spinner:    m.spinner.View(),
		Phase:      m.phase,
		Elapsed:    m.elapsed,
		ShowCancel: true,
	}.Render(m.styles)
}

// RunWithSpinner runs work while showing a spinner on out. When out is not a
// terminal, work simply runs. Pressing ctrl+c cancels the context passed to
// work.
func RunWithSpinner(ctx context.Context, out io.Writer, phase string, work func(ctx context.Context)) error {
	if !IsTerminal(out) {
		work(ctx)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		work(ctx)
	}()

	opts := []tea.ProgramOption{tea.WithOutput(out)}
	// Open TTY for input so stdin stays free for the caller
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err == nil {
		defer tty.Close()
		opts = append(opts, tea.WithInput(tty))
	} else {
		opts = append(opts, tea.WithInput(nil))
	}

	p := tea.NewProgram(newWaitModel(phase, NewStyles(out), done, cancel), opts...)
	_, runErr := p.Run()
	<-done
	return runErr
}
