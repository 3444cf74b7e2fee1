package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/alem-hub/reboot-profile/internal/application/command"
	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN
// ══════════════════════════════════════════════════════════════════════════════

func newLoginCmd(e *env) *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(e.in)

			if identifier == "" {
				fmt.Fprint(e.out, "Username or email: ")
				line, err := readLine(reader)
				if err != nil {
					return err
				}
				identifier = line
			}

			fmt.Fprint(e.out, "Password: ")
			password, err := readPassword(e.in, reader)
			fmt.Fprintln(e.out)
			if err != nil {
				return err
			}

			result, err := e.app.Login.Handle(cmd.Context(), command.LoginCommand{
				Identifier: identifier,
				Password:   password,
			})
			switch {
			case errors.Is(err, command.ErrMissingCredentials):
				e.present.Error("%s", command.ErrMissingCredentials.Message)
				return errSilent
			case errors.Is(err, command.ErrInvalidCredentials):
				e.present.Error("%s", command.ErrInvalidCredentials.Message)
				return errSilent
			case err != nil:
				return err
			}

			e.present.Success("Logged in as %s.", result.Session.Login)
			return nil
		},
	}
	cmd.Flags().StringVarP(&identifier, "user", "u", "", "Username or email")
	return cmd
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads without echo from a terminal and falls back to a plain
// line for pipes.
func readPassword(in io.Reader, r *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGOUT
// ══════════════════════════════════════════════════════════════════════════════

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := e.files.Current(cmd.Context())
			if errors.Is(err, session.ErrSessionNotFound) {
				e.present.Success("Already logged out.")
				return nil
			}
			if err != nil {
				return err
			}
			if err := e.app.Logout.Handle(cmd.Context(), command.LogoutCommand{SessionID: id}); err != nil {
				return err
			}
			e.present.Success("Logged out.")
			return nil
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WHOAMI
// ══════════════════════════════════════════════════════════════════════════════

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := e.current(cmd.Context())
			if err != nil {
				return err
			}
			s, err := e.app.Sessions.Check(cmd.Context(), id)
			if err != nil {
				return e.sessionError(err)
			}
			e.present.Session(s, e.app.Sessions.Now())
			return nil
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

func newSummaryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Aliases: []string{"dashboard", "me"},
		Short:   "Print your profile dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := e.current(cmd.Context())
			if err != nil {
				return err
			}
			d, err := e.app.Dashboard.Handle(cmd.Context(), query.GetDashboardQuery{SessionID: id})
			if err != nil {
				return e.sessionError(err)
			}
			e.present.Dashboard(d)
			return nil
		},
	}
}

// sessionError reports a session that ended and returns errSilent, or
// passes any other error through.
func (e *env) sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		e.present.Error("%s", session.ExpiredMessage)
		return errSilent
	case errors.Is(err, session.ErrSessionNotFound):
		e.present.Error("Not logged in. Run `profilectl login` first.")
		return errSilent
	default:
		return err
	}
}
