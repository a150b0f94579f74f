package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/lambsat/formatter"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rewrite rules a run would use",
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}
		fmt.Print(formatter.FormatRules(engine.Rules()))
	},
}
