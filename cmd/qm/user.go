package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quantummeet/quantummeet/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath    string
		email         string
		name          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a user who can sign in to the dashboard",
		Long: `Registers a user. The password is read from the terminal without echo,
or from the first line of standard input with --password-stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, configPath, email, name, passwordStdin)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().StringVar(&email, "email", "", "email address used to sign in (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")
	return cmd
}

func runUserAdd(cmd *cobra.Command, configPath, email, name string, passwordStdin bool) error {
	password, err := readPassword(cmd, passwordStdin)
	if err != nil {
		return err
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	user, err := auth.CreateUser(context.Background(), gormDB, auth.CreateUserOpts{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Email, user.ID)
	return nil
}

// readPassword reads the new user's password, either as one line from
// stdin or interactively with confirmation.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; use --password-stdin")
	}

	out := cmd.ErrOrStderr()
	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
