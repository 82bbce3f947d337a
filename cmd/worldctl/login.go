package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/config"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	var nonInteractive bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in ~/.worldctl/config.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !nonInteractive {
				in := bufio.NewReader(cmd.InOrStdin())
				if email == "" {
					email = prompt(cmd.OutOrStdout(), in, "Email", "")
				}
				if password == "" {
					password = promptSecret(cmd.OutOrStdout(), in, "Password")
				}
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required (provide flags or use interactive mode)")
			}
			// keep the endpoint with the session
			if err := config.Update(a.cfg.Profile, func(p *config.Profile) { p.APIURL = a.cfg.APIURL }); err != nil {
				return err
			}
			id, err := a.gate.Login(cmd.Context(), email, password)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			role := "user"
			if id.IsAdministrator() {
				role = strings.ToLower(sdk.RoleAdministrator)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Active profile: %s\n", id.Name, role, a.cfg.Profile)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			// Close waits for the background revocation
			defer a.Close()
			if !a.gate.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			a.gate.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func prompt(w io.Writer, in *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	s, err := in.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" || (err != nil && err != io.EOF) {
		return def
	}
	return s
}

// promptSecret reads without echo from a terminal and falls back to in.
func promptSecret(w io.Writer, in *bufio.Reader, label string) string {
	fmt.Fprintf(w, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		s, _ := in.ReadString('\n')
		return strings.TrimSpace(s)
	}
	b, _ := term.ReadPassword(fd)
	fmt.Fprintln(w)
	return strings.TrimSpace(string(b))
}
