package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/samsaffron/course-llm/internal/exitcode"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./config.yaml or $XDG_CONFIG_HOME/course-llm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugLog, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "course-llm",
	Short: "Course assistant chat backed by OpenAI or Anthropic",
	Long: `course-llm answers questions about the AI development course using
OpenAI (OPENAI_API_KEY) or, if no OpenAI key is set, Anthropic
(ANTHROPIC_API_KEY).

Examples:
  course-llm serve                       # web chat on http://127.0.0.1:8501
  course-llm ask "Was ist RAG?"
  course-llm ask "Und LangChain?" --history chat.json --save chat.json
  course-llm chat                        # terminal chat
  course-llm config show`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startProfiling()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopProfiling()
	},
}

var configFile string
var debugLog bool
var cpuProfile string
var memProfile string
var cpuProfileFile *os.File

func startProfiling() error {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return err
		}
		cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
	}
	return nil
}

func stopProfiling() error {
	if cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cpuProfileFile.Close()
	}
	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr exitcode.ExitError
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, "Error:", msg)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitcode.Error)
	}
}
