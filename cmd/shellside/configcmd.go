package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/b/shellside/pkg/config"
)

var (
	initForce      bool
	profileCommand string
	profileArgs    []string
	profileDir     string
	profileEnv     []string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config with defaults, env and flags applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := resolvedConfigPath()
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		cfg, err := config.Load("", nil)
		if err != nil {
			return err
		}
		if err := config.SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		return nil
	},
}

var configAddProfileCmd = &cobra.Command{
	Use:   "add-profile NAME",
	Short: "Add a shell profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editConfig(func(cfg *config.Config) error {
			return config.AddProfile(cfg, config.Profile{
				Name:    args[0],
				Command: profileCommand,
				Args:    profileArgs,
				Dir:     profileDir,
				Env:     profileEnv,
			})
		})
	},
}

var configRemoveProfileCmd = &cobra.Command{
	Use:   "remove-profile NAME",
	Short: "Remove a shell profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editConfig(func(cfg *config.Config) error {
			return config.DeleteProfile(cfg, args[0])
		})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	f := configAddProfileCmd.Flags()
	f.StringVar(&profileCommand, "command", "", "program to run (default $SHELL)")
	f.StringSliceVar(&profileArgs, "arg", nil, "argument for the program, repeatable")
	f.StringVar(&profileDir, "dir", "", "working directory")
	f.StringSliceVar(&profileEnv, "env", nil, "KEY=VALUE added to the environment, repeatable")

	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd, configAddProfileCmd, configRemoveProfileCmd)
	rootCmd.AddCommand(configCmd)
}

// editConfig loads the config file, applies fn and writes it back.
func editConfig(fn func(*config.Config) error) error {
	path := resolvedConfigPath()
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return config.SaveConfig(path, cfg)
}
