package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voiceflow/internal/config"
	"voiceflow/internal/keychain"
	"voiceflow/internal/providers"
)

const validateTimeout = 20 * time.Second

func newKeysCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API keys",
	}

	var validate bool
	setCmd := &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key (read from stdin when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := providers.ParseType(args[0])
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				key, err = readKey(cmd)
				if err != nil {
					return err
				}
			}
			if validate {
				if err := validateKey(cmd.Context(), root, t, key); err != nil {
					return err
				}
			}
			keys, err := keychain.Open(root.dataDir, true)
			if err != nil {
				return err
			}
			if err := keys.Save(t, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s\n", t)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&validate, "validate", false, "Check the key with the provider before storing it")

	getCmd := &cobra.Command{
		Use:   "get <provider>",
		Short: "Show which key would be used, masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := providers.ParseType(args[0])
			if err != nil {
				return err
			}
			key, source := root.cfg.ResolveAPIKey(t, openKeySource(root))
			if key == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no key (set one with `voiceflow keys set %s`, or %s)\n", t, t, t.EnvVar())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (from %s)\n", t, maskKey(key), source)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove the stored key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := providers.ParseType(args[0])
			if err != nil {
				return err
			}
			keys, err := keychain.Open(root.dataDir, true)
			if err != nil {
				return err
			}
			if err := keys.Delete(t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted API key for %s\n", t)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := keychain.Open(root.dataDir, true)
			if err != nil {
				return err
			}
			if err := keys.DeleteAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted all stored API keys")
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List providers with a stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := keychain.Open(root.dataDir, true)
			if err != nil {
				return err
			}
			stored := keys.Stored()
			if len(stored) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored API keys")
				return nil
			}
			for _, t := range stored {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, getCmd, deleteCmd, clearCmd, listCmd)
	return cmd
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <provider>",
		Short: "Check that the resolved API key is accepted by the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := providers.ParseType(args[0])
			if err != nil {
				return err
			}
			key, source := root.cfg.ResolveAPIKey(t, openKeySource(root))
			if key == "" {
				return fmt.Errorf("no API key for %s", t)
			}
			if err := validateKey(cmd.Context(), root, t, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s accepted the key from %s\n", t, source)
			return nil
		},
	}
}

// validateKey checks key with a throwaway adapter for t
func validateKey(ctx context.Context, root *rootFlags, t providers.Type, key string) error {
	settings, err := root.cfg.ProviderSettings()
	if err != nil {
		return err
	}
	s := settings[t]
	p := providers.New(t, "", s.Model, s.BaseURL)

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()
	if !p.ValidateKey(ctx, key) {
		return fmt.Errorf("%s rejected the API key", t)
	}
	return nil
}

// openKeySource returns the keychain, or nil when it cannot be opened
func openKeySource(root *rootFlags) config.KeySource {
	keys, err := keychain.Open(root.dataDir, true)
	if err != nil {
		return nil
	}
	return keys
}

func readKey(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	key := strings.TrimSpace(line)
	if key == "" {
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return "", errors.New("empty API key")
	}
	return key, nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}
