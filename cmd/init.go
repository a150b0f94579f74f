package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/lambsat/simplify"
)

var forceInit bool

var errConfigExists = errors.New("configuration file already exists (use --force to overwrite)")

// initCmd: lambsat init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file listing every rule and limit",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initConfigurationFile(cfgFile, forceInit); err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			os.Exit(1)
		}
		fmt.Printf("Configuration file created/updated: %s\n", cfgFile)
	},
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")
}

func initConfigurationFile(configurationPath string, force bool) error {
	if configurationPath == "" {
		configurationPath = simplify.DefaultConfigPath
	}
	if _, err := os.Stat(configurationPath); err == nil && !force {
		return errConfigExists
	}
	return simplify.WriteConfig(configurationPath, simplify.DefaultConfig())
}
