package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cascadehq/cascade"
	"github.com/cascadehq/cascade/pkg/adapters/memory"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/pipeline"
	"github.com/cascadehq/cascade/pkg/suspend"
)

// runCmd executes a named pipeline once and prints the outcome.
var runCmd = &cobra.Command{
	Use:   "run <pipeline>",
	Short: "Execute a named pipeline once",
	Long:  `Loads the pipeline definitions file, executes the named pipeline against a fresh build target, and prints the result to stdout.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPipeline(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, name string) error {
	path, _ := cmd.Flags().GetString("pipelines")
	logger := newLogger(cmd)

	pipelines, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	broker := suspend.NewBroker(memory.NewStore(), suspend.WithLogger(logger))
	reg := newRegistry(broker, logger)
	if err := pipelines.Validate(reg); err != nil {
		return err
	}

	def, err := pipelines.Get(name)
	if err != nil {
		return err
	}

	engine := cascade.New(reg, cascade.WithLogger(logger))
	outcome, err := engine.Run(cmd.Context(), def.Chain(), domain.NewContext(), reportFactory{})
	if err != nil {
		return err
	}

	return printOutcome(outcome)
}

func printOutcome(outcome domain.Outcome) error {
	switch outcome.Status {
	case domain.StatusCompleted:
		if outcome.Result != nil {
			fmt.Println(outcome.Result)
		}
		return nil
	case domain.StatusRejected:
		return fmt.Errorf("no stage produced a result")
	default:
		return fmt.Errorf("pipeline failed: %w", outcome.Err)
	}
}
