package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huongkhe/schoolsite/internal/auth"
)

// newHashPasswordCmd prints an Argon2id hash for use as password_hash in
// the security section of the config. The password is read from the
// argument or, when absent, the first line of stdin.
func newHashPasswordCmd() *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for the config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			if !skipCheck {
				if unmet := auth.CheckPasswordStrength(password); len(unmet) > 0 {
					return fmt.Errorf("password too weak: %s", strings.Join(unmet, "; "))
				}
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "skip the password strength rules")
	return cmd
}
