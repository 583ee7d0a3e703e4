package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshliford/amplify-guitar/internal/auth"
)

// NewTokenCmd creates the token subcommand for minting and inspecting
// bearer tokens with the configured secret.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or inspect bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(), newTokenInspectCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a token for an email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			codec, err := codecFromEnv()
			if err != nil {
				return err
			}
			token, exp, err := codec.Issue(strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return err
			}
			cmd.Println(token)
			cmd.PrintErrln("expires", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "subject email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFromEnv()
			if err != nil {
				return err
			}
			claims, err := codec.Parse(args[0])
			if err != nil {
				return err
			}
			t := claims.Token()
			cmd.Printf("id: %s\nsubject: %s\nissued: %s\nexpires: %s\n",
				t.ID, t.Subject,
				t.IssuedAt.UTC().Format(time.RFC3339Nano),
				t.ExpiresAt.UTC().Format(time.RFC3339Nano))
			return nil
		},
	}
}

func codecFromEnv() (*auth.TokenCodec, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime())
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	return codec, nil
}
