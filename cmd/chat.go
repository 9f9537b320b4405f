package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samsaffron/course-llm/internal/llm"
	"github.com/samsaffron/course-llm/internal/prompt"
	"github.com/samsaffron/course-llm/internal/session"
	"github.com/samsaffron/course-llm/internal/ui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the course assistant in the terminal",
	Long: `Start an interactive terminal chat.

Commands:
  /reset            clear the conversation
  /save [file]      export the conversation as JSON
  /load <file>      replace the conversation with a JSON export
  /markdown [file]  export the conversation as Markdown
  /history          show the conversation so far
  /help             show this help
  /quit             leave the chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	repl := &chatREPL{
		in:         bufio.NewScanner(os.Stdin),
		out:        out,
		status:     os.Stderr,
		styles:     ui.NewStyles(out),
		env:        env,
		transcript: &session.Transcript{},
		highlight:  ui.ColorEnabled(os.Stdout),
		width:      ui.Width(os.Stdout, 80),
		now:        time.Now,
	}
	return repl.run(cmd.Context())
}

type chatREPL struct {
	in         *bufio.Scanner
	out        io.Writer
	status     io.Writer
	styles     *ui.Styles
	env        *runtimeEnv
	transcript *session.Transcript
	highlight  bool
	width      int
	now        func() time.Time
}

const chatHelp = `/reset            Chat zurücksetzen
/save [datei]     Chat als JSON exportieren
/load <datei>     Chat aus JSON importieren
/markdown [datei] Chat als Markdown exportieren
/history          Verlauf anzeigen
/quit             Beenden`

func (r *chatREPL) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.printBanner()

	for {
		fmt.Fprint(r.out, r.styles.User.Render(ui.UserLabel+"> "))
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		r.ask(ctx, line)
	}
}

func (r *chatREPL) printBanner() {
	fmt.Fprintln(r.out, r.styles.Title.Render("🤖 AI Kurs-Assistent"))
	if p := r.env.bridge.Provider(); p != nil {
		fmt.Fprintln(r.out, r.styles.Subtitle.Render(fmt.Sprintf("%s · %s", p.Kind().DisplayName(), p.Model())))
	}
	var evenings []string
	for _, e := range prompt.Syllabus {
		evenings = append(evenings, fmt.Sprintf("%d. %s", e.Number, e.Title))
	}
	fmt.Fprintln(r.out, r.styles.Muted.Render("Kursübersicht: "+strings.Join(evenings, " | ")))
	fmt.Fprintln(r.out, r.styles.Muted.Render("/help für Befehle"))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) ask(ctx context.Context, question string) {
	var reply string
	var ok bool
	err := ui.RunWithSpinner(ctx, r.status, "Denke nach", func(ctx context.Context) {
		reply, ok = r.transcript.Ask(ctx, r.env.bridge, r.env.system, question)
	})
	if err != nil {
		r.env.logger.Debug("spinner failed", "error", err)
	}
	fmt.Fprintln(r.out, r.styles.FormatMessage(llm.AssistantText(reply), ui.MessageOptions{
		Highlight: r.highlight,
		Failed:    !ok,
	}))
	fmt.Fprintln(r.out)
}

// command runs a slash command and reports whether the chat should end.
func (r *chatREPL) command(line string) bool {
	fields := strings.Fields(line)
	name, arg := fields[0], ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch name {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		fmt.Fprintln(r.out, chatHelp)
	case "/reset", "/clear":
		r.transcript.Reset()
		fmt.Fprintln(r.out, r.styles.FormatResult(true, "Chat zurückgesetzt"))
	case "/save":
		path := exportPath(arg, "json", r.now())
		if err := exportFile(r.transcript, path); err != nil {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, err.Error()))
			break
		}
		fmt.Fprintln(r.out, r.styles.FormatResult(true, "Gespeichert: "+path))
	case "/markdown", "/md":
		path := exportPath(arg, "md", r.now())
		meta := session.MarkdownMeta{ExportedAt: r.now()}
		if err := writeMarkdown(r.transcript, r.env.bridge.Provider(), path, meta); err != nil {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, err.Error()))
			break
		}
		fmt.Fprintln(r.out, r.styles.FormatResult(true, "Gespeichert: "+path))
	case "/load":
		if arg == "" {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, "Dateiname fehlt: /load <datei>"))
			break
		}
		if err := importFile(r.transcript, arg); err != nil {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, err.Error()))
			break
		}
		msg := fmt.Sprintf("Chat importiert (%d Nachrichten)", r.transcript.Len())
		if exported := session.ParseExportTime(filepath.Base(arg)); !exported.IsZero() {
			msg = fmt.Sprintf("Chat vom %s importiert (%d Nachrichten)", exported.Format("02.01.2006 15:04"), r.transcript.Len())
		}
		fmt.Fprintln(r.out, r.styles.FormatResult(true, msg))
	case "/history":
		fmt.Fprintln(r.out, r.styles.FormatHistory(r.transcript.Messages(), r.width))
	default:
		fmt.Fprintln(r.out, r.styles.FormatResult(false, "Unbekannter Befehl: "+name+" (/help)"))
	}
	return false
}

// exportPath returns arg with ext appended when it has none, or the default
// export name when arg is empty.
func exportPath(arg, ext string, now time.Time) string {
	if arg == "" {
		return session.ExportFilename("", ext, now)
	}
	if filepath.Ext(arg) == "" {
		return arg + "." + ext
	}
	return arg
}
