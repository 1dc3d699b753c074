package main

import (
	"github.com/CompassSecurity/flowleek/internal/cmd/common"
	"github.com/CompassSecurity/flowleek/internal/cmd/rules"
	"github.com/CompassSecurity/flowleek/internal/cmd/sanitize"
	"github.com/spf13/cobra"
)

func main() {
	common.Run(newRootCmd())
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "flowleek",
		Short:   "Sanitize exported automation workflows before publishing them",
		Long:    `Flowleek rejects exported workflows that contain secrets and turns the rest into reusable templates with named placeholders.`,
		Version: common.Version,
	}

	rootCmd.AddCommand(sanitize.NewSanitizeCmd())
	rootCmd.AddCommand(rules.NewRulesCmd())

	common.SetupPersistentPreRun(rootCmd)
	common.AddCommonFlags(rootCmd)

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	return rootCmd
}
