package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(termCmd)
}

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "Print the term currently open for registration.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		term, err := service.Term(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("year %d, semester %d (%s)\n", term.Year, term.Semester, term)
		return nil
	},
}
