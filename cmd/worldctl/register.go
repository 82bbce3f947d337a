package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlvsolutions/WorldCities-sub000/internal/notify"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

func newRegisterCmd() *cobra.Command {
	var req sdk.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			in := bufio.NewReader(cmd.InOrStdin())
			if req.Name == "" {
				req.Name = prompt(cmd.OutOrStdout(), in, "Name", "")
			}
			if req.Email == "" {
				req.Email = prompt(cmd.OutOrStdout(), in, "Email", "")
			}
			if req.Password == "" {
				req.Password = promptSecret(cmd.OutOrStdout(), in, "Password")
			}
			ctx := cmd.Context()
			dupe, err := a.client.IsDupeEmail(ctx, req.Email)
			if err != nil {
				return a.fail(ctx, err)
			}
			if dupe {
				a.reporter.Report(ctx, notify.Message{Type: notify.Error, Text: "Email already registered."})
				return errReported
			}
			res, err := a.client.Register(ctx, req)
			if err != nil {
				return a.fail(ctx, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Sign in with: worldctl login --email %s\n", res.Message, req.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}
