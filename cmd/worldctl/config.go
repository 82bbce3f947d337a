package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage worldctl configuration"}
	cmd.AddCommand(newConfigUseCmd())
	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Set active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			prof := args[0]
			if _, ok := cfg.Profiles[prof]; !ok {
				return fmt.Errorf("profile %q not found", prof)
			}
			cfg.Active = prof
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", prof)
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				p := cfg.Profiles[name]
				mark := " "
				if name == cfg.Active {
					mark = "*"
				}
				user := "-"
				if p.User != nil && p.LoggedIn() {
					user = p.User.Email
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\t%s\n", mark, name, p.APIURL, user)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			name := cfg.Active
			if p, _ := cmd.Root().PersistentFlags().GetString("profile"); p != "" {
				name = p
			}
			p := cfg.Profiles[name]
			b, _ := json.MarshalIndent(struct {
				Active    string        `json:"active"`
				APIURL    string        `json:"apiUrl"`
				Insecure  bool          `json:"insecure"`
				RateLimit float64       `json:"rateLimit,omitempty"`
				HasToken  bool          `json:"hasToken"`
				User      *config.User  `json:"user,omitempty"`
				Notify    config.Notify `json:"notify"`
			}{name, p.APIURL, p.Insecure, p.RateLimit, p.LoggedIn(), p.User, p.Notify}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var (
		apiURL, redisURL, channel string
		insecure                  bool
		rateLimit                 float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings of the active profile (or --profile)",
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, _ := cmd.Root().PersistentFlags().GetString("profile")
			flags := cmd.Flags()
			err := config.Update(prof, func(p *config.Profile) {
				if flags.Changed("url") {
					if p.APIURL != apiURL {
						// a session belongs to one server
						p.ClearSession()
					}
					p.APIURL = apiURL
				}
				if flags.Changed("insecure") {
					p.Insecure = insecure
				}
				if flags.Changed("rate-limit") {
					p.RateLimit = rateLimit
				}
				if flags.Changed("redis-url") {
					p.Notify.RedisURL = redisURL
				}
				if flags.Changed("redis-channel") {
					p.Notify.Channel = channel
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "url", "", "API base URL")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Mirror status messages to this Redis")
	cmd.Flags().StringVar(&channel, "redis-channel", "", "Redis channel for status messages")
	return cmd
}
