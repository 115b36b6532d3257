package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voiceflow/internal/ai"
	"voiceflow/internal/providers"
	"voiceflow/internal/script"
)

type askFlags struct {
	provider   string
	model      string
	mode       string
	style      string
	scriptPath string
}

func newAskCmd(root *rootFlags) *cobra.Command {
	var flags askFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Print one suggestion and its follow-up questions",
		Long: `Ask the configured AI provider for a suggested answer, using the saved
script (or --script) as context. Nothing is saved as a preference.`,
		Example: `  voiceflow ask "Why do you want this job?"
  voiceflow ask --provider anthropic --mode star "Tell me about a conflict"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, root, &flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "", "AI provider (default: saved or configured provider)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model id")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "coach, qa, star, keywords, custom")
	cmd.Flags().StringVar(&flags.style, "style", "", "professional, casual, concise, detailed")
	cmd.Flags().StringVarP(&flags.scriptPath, "script", "s", "", "Script file to use as context")

	return cmd
}

func runAsk(cmd *cobra.Command, root *rootFlags, flags *askFlags, question string) error {
	svc, err := newServices(root, true)
	if err != nil {
		return err
	}
	defer svc.close()

	store := svc.store
	store.SetAIEnabled(true)

	if flags.scriptPath != "" {
		text, err := script.Load(flags.scriptPath)
		if err != nil {
			return err
		}
		store.SetScript(text)
	}
	if flags.mode != "" {
		m, err := ai.ParseMode(flags.mode)
		if err != nil {
			return err
		}
		store.SetMode(m)
	}
	if flags.style != "" {
		s, err := ai.ParseStyle(flags.style)
		if err != nil {
			return err
		}
		store.SetStyle(s)
	}

	t := store.Snapshot().Provider
	if flags.provider != "" {
		if t, err = providers.ParseType(flags.provider); err != nil {
			return err
		}
	}
	if t == "" {
		return errors.New("no provider selected: pass --provider or set ai.provider in the config file")
	}
	if err := svc.selectProvider(t, flags.model); err != nil {
		return err
	}

	res, err := svc.orch.Ask(cmd.Context(), question)
	if err != nil {
		if msg := store.Snapshot().ErrorMessage; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Suggestion)
	if len(res.FollowUps) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Follow-ups:")
		for i, q := range res.FollowUps {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}
	}
	if store.Snapshot().Script != "" {
		fmt.Fprintf(out, "\nScript match: %d%%\n", int(res.Confidence*100+0.5))
	}
	return nil
}
