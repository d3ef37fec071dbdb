package main

import (
	"github.com/spf13/cobra"

	"ilgraph/internal/project"
)

// loadSettings returns the ilgraph.toml governing the working directory, or
// the defaults when there is none.
func loadSettings() (project.Config, error) {
	man, ok, err := project.LoadManifest(".")
	if err != nil {
		return project.Config{}, err
	}
	if !ok {
		return project.Default(), nil
	}
	return man.Config, nil
}

// boolSetting prefers an explicitly set flag over the config value.
func boolSetting(cmd *cobra.Command, name string, fromConfig bool) (bool, error) {
	if !cmd.Flags().Changed(name) {
		return fromConfig, nil
	}
	return cmd.Flags().GetBool(name)
}

func intSetting(cmd *cobra.Command, name string, fromConfig int) (int, error) {
	if !cmd.Flags().Changed(name) {
		return fromConfig, nil
	}
	return cmd.Flags().GetInt(name)
}

func stringSetting(cmd *cobra.Command, name, fromConfig string) (string, error) {
	if !cmd.Flags().Changed(name) {
		return fromConfig, nil
	}
	return cmd.Flags().GetString(name)
}
