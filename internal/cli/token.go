package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streck/internal/auth"
	"github.com/mmynk/streck/internal/config"
	"github.com/mmynk/streck/internal/storage/sqlite"
)

// TokenOptions holds the flags of the token command.
type TokenOptions struct {
	GroupID string
	UserID  string
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for a group member",
		Long: `Create the group and user if they do not exist yet and print a signed
session token for them. Both ids are the external UUIDs known to the
identity provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			return runToken(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.GroupID, "group", "g", "", "external group id (UUID)")
	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "external user id (UUID)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runToken(ctx context.Context, cfg *config.Config, opts *TokenOptions, out io.Writer) error {
	if err := cfg.RequireAuth(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store := sqlite.New(databaseOptions(cfg, nil))
	defer store.Close()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.GetTokenTTL())
	session, err := auth.NewAuthenticator(store, tokens).IssueSession(ctx, opts.GroupID, opts.UserID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, session.Token)
	return nil
}
