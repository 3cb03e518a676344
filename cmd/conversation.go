package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/store"
	"github.com/abhisek/verba/internal/ui/theme"
)

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Inspect or reset a learner's conversation",
}

var conversationShowCmd = &cobra.Command{
	Use:   "show <userID>",
	Short: "Print a learner's conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.Conversations().FindByUser(cmd.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println("No conversation yet.")
			return nil
		}
		if err != nil {
			return err
		}
		turns, err := c.Turns()
		if err != nil {
			return err
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Conversation %d", c.ID)) +
			theme.Hint.Render(fmt.Sprintf("  user %d, %d turns, updated %s",
				c.UserID, len(turns), c.UpdatedAt.Local().Format("2006-01-02 15:04"))))
		fmt.Println(theme.Rule(60))
		for _, t := range conversation.WithLessonData(turns) {
			printTurn(t)
		}
		return nil
	},
}

var conversationResetCmd = &cobra.Command{
	Use:   "reset <userID>",
	Short: "Delete a learner's conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Conversations().DeleteByUser(cmd.Context(), userID); err != nil {
			return err
		}
		fmt.Printf("Conversation for user %d reset.\n", userID)
		return nil
	},
}

func printTurn(t conversation.StoredTurn) {
	if t.Role == string(conversation.RoleUser) {
		fmt.Println(theme.UserRole.Render("learner") + "  " + t.Content)
		return
	}
	if l := t.LessonData; l != nil {
		body := theme.Heading.Render(l.Title) + "\n\n" +
			l.Greeting + "\n\n" + l.Lesson + "\n\n" +
			theme.Label.Render("Practice: ") + l.Practice
		fmt.Println(theme.AssistantRole.Render("tutor"))
		fmt.Println(theme.LessonCard.Width(72).Render(body))
		return
	}
	fmt.Println(theme.AssistantRole.Render("tutor") + "    " + t.Content)
}

func init() {
	conversationCmd.AddCommand(conversationShowCmd)
	conversationCmd.AddCommand(conversationResetCmd)
}
