package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subjectCmd)
}

var subjectCmd = &cobra.Command{
	Use:   "subject <subject id>",
	Short: "Print the name of a subject.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectId := strings.ToUpper(strings.TrimSpace(args[0]))
		name, err := service.SubjectName(cmd.Context(), subjectId)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", subjectId, name)
		return nil
	},
}
