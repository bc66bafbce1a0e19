package liveedit

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

type cliFlags struct {
	Root        string
	Write       bool
	ChunkSize   int
	DelayMS     int
	Prompt      string
	Model       string
	UseNvim     bool
	NoAnimation bool
	Plain       bool
	Undo        bool
	Redo        bool
	Completion  string
}

var flags = &cliFlags{}

var rootCmd = &cobra.Command{
	Use:   "liveedit [response-file]",
	Short: "Show a streamed file-editing response as a live diff and apply it.",
	Long: `Stream a response carrying whole-file edits and show each edit as a
unified diff against the file on disk while it arrives.

The response is read from the given file, a pipe on stdin, or the clipboard,
and replayed in chunks. With --gemini it is streamed live from the Gemini API.
Nothing is written unless --write is given.

Example: pbpaste | liveedit -w`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flags.Completion != "" {
			return handleCompletion(cmd)
		}

		cfg, err := LoadConfig(flags.Root)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg, args)

		app, err := NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		noAnimation := cfg.NoAnimation || cfg.Undo || cfg.Redo
		err = Run(ctx, app, cmd.OutOrStdout(), noAnimation, cfg.Plain)
		if de, ok := err.(*DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", de.Stack)
		}
		return err
	},
}

// applyFlags overrides configuration with the flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *Config, args []string) {
	f := cmd.Flags()
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if f.Changed("chunk") {
		cfg.ChunkSize = flags.ChunkSize
	}
	if f.Changed("delay") {
		cfg.Delay = time.Duration(flags.DelayMS) * time.Millisecond
	}
	if f.Changed("model") {
		cfg.Model = flags.Model
	}
	cfg.Prompt = flags.Prompt
	cfg.Write = flags.Write
	cfg.UseNvim = flags.UseNvim
	cfg.NoAnimation = flags.NoAnimation
	cfg.Plain = flags.Plain
	cfg.Undo = flags.Undo
	cfg.Redo = flags.Redo
}

func handleCompletion(cmd *cobra.Command) error {
	switch flags.Completion {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell for completion: %s", flags.Completion)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flags.Completion, "completion", "", "Generate completion script")
	rootCmd.Flags().StringVarP(&flags.Root, "root", "C", "", "Project root (default: current directory)")
	rootCmd.Flags().BoolVarP(&flags.Write, "write", "w", false, "Write the edits once the stream ends")
	rootCmd.Flags().IntVar(&flags.ChunkSize, "chunk", defaultChunkSize, "Replay chunk size in characters")
	rootCmd.Flags().IntVar(&flags.DelayMS, "delay", int(defaultDelay/time.Millisecond), "Replay delay between chunks in milliseconds")
	rootCmd.Flags().StringVar(&flags.Prompt, "gemini", "", "Stream a live answer to this prompt from Gemini")
	rootCmd.Flags().StringVar(&flags.Model, "model", defaultModel, "Gemini model")
	rootCmd.Flags().BoolVar(&flags.UseNvim, "nvim", false, "Write through Neovim buffers")
	rootCmd.Flags().BoolVar(&flags.NoAnimation, "no-animation", false, "Print only the final diff")
	rootCmd.Flags().BoolVar(&flags.Plain, "plain", false, "Disable colors")
	rootCmd.Flags().BoolVarP(&flags.Undo, "undo", "u", false, "Undo last commit")
	rootCmd.Flags().BoolVarP(&flags.Redo, "redo", "r", false, "Redo last undone commit")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

func Execute() error {
	defer log.Close()
	return rootCmd.Execute()
}
