package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"exppro-backend/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeAll, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeAll()
			if err := db.Migrate(a.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

func createSuperuserCmd() *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account for the admin console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeAll, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeAll()

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return err
			}
			user, err := a.auth.CreateSuperuser(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created (id %d).\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword asks twice without echo when the command's input is a
// terminal, and reads one line otherwise so the command can be scripted.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	fd, ok := terminalFd(cmd.InOrStdin())
	if !ok {
		return prompt(cmd, in, "")
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}
