package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cascadehq/cascade/pkg/adapters/memory"
	"github.com/cascadehq/cascade/pkg/pipeline"
	"github.com/cascadehq/cascade/pkg/suspend"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the pipeline definitions for consistency",
	Long:  `Parses the pipeline definitions file and verifies that every stage reference resolves against the built-in registry.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Pipelines are valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("pipelines")
	logger := newLogger(cmd)

	pipelines, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	broker := suspend.NewBroker(memory.NewStore())
	return pipelines.Validate(newRegistry(broker, logger))
}
