// flowmind CLI — инструмент командной строки для построения
// и исполнения планов через HTTP API.
//
// Использование:
//
//	flowmind [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	plan     Построить и исполнить план из намерения
//	execute  Исполнить план из файла с пользовательскими входами
//	health   Проверить доступность API
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowmind/flowmind/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flowmind",
		Short:         "flowmind CLI — plan validation and execution tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewPlanCmd(clientFn, outputFn),
		cli.NewExecuteCmd(clientFn, outputFn),
		cli.NewHealthCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
