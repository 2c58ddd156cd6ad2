package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewExecuteCmd создаёт команду execute: план из файла + входы пользователя.
func NewExecuteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var planFile string
	var inputs []string

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute a plan document with per-step user inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(planFile)
			if err != nil {
				return fmt.Errorf("read plan file: %w", err)
			}

			var plan map[string]any
			if err := json.Unmarshal(data, &plan); err != nil {
				return fmt.Errorf("parse plan file: %w", err)
			}

			userInputs, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			result, err := client.ExecutePlan(plan, userInputs)
			if err != nil {
				return err
			}

			printResult(out, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&planFile, "file", "f", "plan.json", "Plan document file")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Step input as STEP_ID=KEY=VALUE (repeatable)")

	return cmd
}

// parseInputs разбирает флаги --input STEP_ID=KEY=VALUE в структуру
// user_inputs. Шаг без явного step_id адресуется позицией: 0=KEY=VALUE.
func parseInputs(inputs []string) (map[string]map[string]any, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	userInputs := make(map[string]map[string]any)
	for _, kv := range inputs {
		parts := strings.SplitN(kv, "=", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid input format %q, expected STEP_ID=KEY=VALUE", kv)
		}

		stepID, key, value := parts[0], parts[1], parts[2]
		if userInputs[stepID] == nil {
			userInputs[stepID] = make(map[string]any)
		}
		userInputs[stepID][key] = value
	}
	return userInputs, nil
}
