package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"voiceflow/internal/config"
	"voiceflow/internal/db"
	"voiceflow/internal/logging"
)

type rootFlags struct {
	configPath string
	scriptPath string
	debugMode  bool

	cfg     *config.Config
	dataDir string
	logFile io.Closer
}

func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "voiceflow",
		Short: "voiceflow - teleprompter with live interview suggestions",
		Long: `voiceflow scrolls a script in the terminal and, while you talk,
asks an AI provider for suggested answers to the questions you hear.`,
		Example: `  voiceflow --script notes.md
  voiceflow ask "Tell me about a time you failed"
  voiceflow keys set openai`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logFile != nil {
				if err := flags.logFile.Close(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "close log file: %v\n", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverlay(cmd.Context(), &flags)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (default: "+config.ConfigPath()+")")
	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVarP(&flags.scriptPath, "script", "s", "", "Script to load at startup (.txt, .md, .rtf)")

	cmd.AddCommand(newAskCmd(&flags))
	cmd.AddCommand(newKeysCmd(&flags))
	cmd.AddCommand(newValidateCmd(&flags))
	cmd.AddCommand(newExportCmd(&flags))

	return cmd
}

// setup loads config and installs logging before any subcommand runs
func (f *rootFlags) setup(cmd *cobra.Command) error {
	var err error
	if f.configPath != "" {
		f.cfg, err = config.LoadFile(f.configPath)
	} else {
		f.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	f.dataDir, err = db.DataDir()
	if err != nil {
		return fmt.Errorf("locate data directory: %w", err)
	}
	if err := os.MkdirAll(f.dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logFile, err := logging.Setup(logging.Options{
		Level:   f.cfg.Log.Level,
		File:    f.cfg.Log.File,
		DataDir: f.dataDir,
		Debug:   f.debugMode,
	})
	if err != nil {
		// The overlay owns the terminal; without a log file, stay quiet.
		logging.Discard()
		fmt.Fprintf(cmd.ErrOrStderr(), "logging disabled: %v\n", err)
		return nil
	}
	f.logFile = logFile
	slog.Debug("starting", "command", cmd.Name(), "data_dir", f.dataDir)
	return nil
}
