package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/verba/internal/auth"
	"github.com/abhisek/verba/internal/store"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint API tokens for development",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := auth.New(cfg.Server.JWTSecret)
		if err != nil {
			return fmt.Errorf("%w (set VERBA_JWT_SECRET)", err)
		}

		s, err := store.Open(cmd.Context(), cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()
		if _, err := s.Users().Get(cmd.Context(), userID); err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}

		token, err := a.Issue(userID, ttl)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().Uint("user", 0, "Learner ID")
	tokenIssueCmd.Flags().Duration("ttl", auth.DefaultTTL, "Token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(tokenIssueCmd)
}
