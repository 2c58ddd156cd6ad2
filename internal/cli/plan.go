package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewPlanCmd создаёт команду plan: намерение → план → валидация → исполнение.
func NewPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "plan INTENT...",
		Short: "Build and run a plan from a natural-language intent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			intent := strings.Join(args, " ")

			result, err := client.CreatePlan(intent)
			if err != nil {
				return err
			}

			if outFile != "" {
				data, err := json.MarshalIndent(result.Plan, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal plan: %w", err)
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("write plan file: %w", err)
				}
				out.Success(fmt.Sprintf("Plan saved: %s", outFile))
			}

			printResult(out, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Save the plan document to a file")

	return cmd
}

// printResult выводит ошибки валидации либо результаты шагов.
func printResult(out *Output, result *PlanResult) {
	if !result.Validation.Valid {
		headers := []string{"CODE", "PATH", "MESSAGE"}
		rows := make([][]string, len(result.Validation.Errors))
		for i, e := range result.Validation.Errors {
			rows[i] = []string{e.Code, e.Path, e.Message}
		}
		out.Error("plan is invalid")
		out.Print(headers, rows, result)
		return
	}

	if result.Execution == nil {
		out.Success("Plan is valid; no execution")
		out.Print([]string{"ORDER"}, orderRows(result.Validation.ExecutionOrder), result)
		return
	}

	if result.Execution.Success {
		out.Success(fmt.Sprintf("Run %s completed", result.Execution.RunID))
	} else {
		out.Error(fmt.Sprintf("Run %s failed: %s", result.Execution.RunID, result.Execution.Error))
	}

	headers := []string{"STEP_ID", "ATOM_ID", "STATUS", "ERROR"}
	rows := make([][]string, len(result.Execution.StepResults))
	for i, s := range result.Execution.StepResults {
		rows[i] = []string{s.StepID, s.AtomID, s.Status, s.Error}
	}
	out.Print(headers, rows, result)
}

func orderRows(order []string) [][]string {
	rows := make([][]string, len(order))
	for i, sid := range order {
		rows[i] = []string{sid}
	}
	return rows
}
