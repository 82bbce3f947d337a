package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type whoami struct {
	Profile      string          `json:"profile" yaml:"profile"`
	APIURL       string          `json:"apiUrl" yaml:"apiUrl"`
	LoggedIn     bool            `json:"loggedIn" yaml:"loggedIn"`
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	Email        string          `json:"email,omitempty" yaml:"email,omitempty"`
	Roles        []string        `json:"roles,omitempty" yaml:"roles,omitempty"`
	TokenExpiry  time.Time       `json:"tokenExpiry,omitempty" yaml:"tokenExpiry,omitempty"`
	Capabilities map[string]bool `json:"capabilities" yaml:"capabilities"`
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what the API lets them do",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			caps, err := a.client.Capabilities(cmd.Context())
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			w := whoami{Profile: a.cfg.Profile, APIURL: a.cfg.APIURL, Capabilities: caps.Capabilities}
			if id, ok := a.gate.Current(); ok {
				w.LoggedIn = true
				w.ID, w.Name, w.Email, w.Roles, w.TokenExpiry = id.ID, id.Name, id.Email, id.Roles, id.TokenExpiry
			}
			if out != outTable {
				return encode(cmd.OutOrStdout(), out, w)
			}
			o := cmd.OutOrStdout()
			if !w.LoggedIn {
				fmt.Fprintf(o, "Not logged in (%s)\n", w.APIURL)
			} else {
				fmt.Fprintf(o, "%s <%s> on %s\n", w.Name, w.Email, w.APIURL)
				fmt.Fprintf(o, "Roles: %s\n", strings.Join(w.Roles, ", "))
				if !w.TokenExpiry.IsZero() {
					fmt.Fprintf(o, "Token expires: %s\n", w.TokenExpiry.Local().Format(time.RFC1123))
				}
			}
			var allowed []string
			for k, ok := range w.Capabilities {
				if ok {
					allowed = append(allowed, k)
				}
			}
			slices.Sort(allowed)
			fmt.Fprintf(o, "Allowed: %s\n", strings.Join(allowed, " "))
			return nil
		},
	}
}
