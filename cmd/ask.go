package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samsaffron/course-llm/internal/exitcode"
	"github.com/samsaffron/course-llm/internal/llm"
	"github.com/samsaffron/course-llm/internal/session"
	"github.com/samsaffron/course-llm/internal/ui"
	"github.com/spf13/cobra"
)

var (
	askHistory string
	askSave    string
	askText    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask the course assistant one question and print the answer.

A previous JSON export can be supplied as conversation history, and the
resulting conversation can be saved for the next call.

Examples:
  course-llm ask "Was ist RAG?"
  course-llm ask "Wie installiere ich LangChain?" --save chat.json
  course-llm ask "Und wie teste ich das?" --history chat.json --save chat.json
  course-llm ask "Was kommt am Abend 3?" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askHistory, "history", "", "JSON export to use as conversation history")
	askCmd.Flags().StringVar(&askSave, "save", "", "Write the resulting conversation to this JSON file")
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Output plain text without highlighting")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	return askQuestion(cmd.Context(), env, askOptions{
		Question:  strings.Join(args, " "),
		History:   askHistory,
		Save:      askSave,
		Highlight: !askText && ui.ColorEnabled(os.Stdout),
		Out:       cmd.OutOrStdout(),
		Status:    os.Stderr,
	})
}

type askOptions struct {
	Question  string
	History   string
	Save      string
	Highlight bool
	Out       io.Writer
	Status    io.Writer
}

// askQuestion runs one turn. A failed request prints the diagnostic and
// exits non-zero; the conversation is still saved.
func askQuestion(ctx context.Context, env *runtimeEnv, opts askOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	transcript := &session.Transcript{}
	if opts.History != "" {
		if err := importFile(transcript, opts.History); err != nil {
			return err
		}
	}

	var reply string
	var ok bool
	err := ui.RunWithSpinner(ctx, opts.Status, "Denke nach", func(ctx context.Context) {
		reply, ok = transcript.Ask(ctx, env.bridge, env.system, opts.Question)
	})
	if err != nil {
		return err
	}

	if ok {
		if opts.Highlight {
			reply = ui.HighlightCodeBlocks(reply)
		}
		fmt.Fprintln(opts.Out, reply)
	}

	if opts.Save != "" {
		if err := exportFile(transcript, opts.Save); err != nil {
			return err
		}
	}

	if !ok {
		return exitcode.Failed(reply)
	}
	return nil
}

func importFile(transcript *session.Transcript, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer f.Close()
	if err := transcript.Import(f); err != nil {
		return fmt.Errorf("Fehler beim Import: %w", err)
	}
	return nil
}

func exportFile(transcript *session.Transcript, path string) error {
	data, err := transcript.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// writeMarkdown exports the transcript as Markdown to path.
func writeMarkdown(transcript *session.Transcript, provider llm.Provider, path string, meta session.MarkdownMeta) error {
	if provider != nil {
		meta.Provider = provider.Kind().DisplayName()
		meta.Model = provider.Model()
	}
	doc := session.ExportMarkdown(meta, transcript.Messages())
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}
