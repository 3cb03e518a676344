package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/store"
	"github.com/abhisek/verba/internal/ui/theme"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage learners",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		goal, _ := cmd.Flags().GetString("goal")
		levelArg, _ := cmd.Flags().GetString("level")

		u := &store.User{Name: name, Email: email, Goal: goal}
		if levelArg != "" {
			level, err := conversation.ParseLevel(levelArg)
			if err != nil {
				return err
			}
			u.Level = level
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Users().Create(cmd.Context(), u); err != nil {
			return err
		}
		printUser(u)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := s.Users().Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		printUser(u)
		return nil
	},
}

func printUser(u *store.User) {
	level := string(u.Level)
	if level == "" {
		level = theme.Hint.Render("(not set)")
	}
	goal := u.Goal
	if goal == "" {
		goal = theme.Hint.Render("(not set)")
	}
	fmt.Println(theme.Title.Render(u.Name))
	fmt.Printf("%s %d\n", theme.Label.Render("ID:       "), u.ID)
	fmt.Printf("%s %s\n", theme.Label.Render("Email:    "), u.Email)
	fmt.Printf("%s %s\n", theme.Label.Render("Goal:     "), goal)
	fmt.Printf("%s %s\n", theme.Label.Render("Level:    "), level)
	fmt.Printf("%s %s\n", theme.Label.Render("Onboarded:"), theme.Mark(u.Onboarded()))
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return uint(id), nil
}

func init() {
	userCreateCmd.Flags().String("name", "", "Learner name")
	userCreateCmd.Flags().String("email", "", "Learner email")
	userCreateCmd.Flags().String("goal", "", "Learning goal (skips onboarding when set with --level)")
	userCreateCmd.Flags().String("level", "", "Beginner, Intermediate or Advanced")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
}
