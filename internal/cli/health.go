package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHealthCmd создаёт команду health.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := client.Health()
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("API status: %s", status))
			return nil
		},
	}
}
