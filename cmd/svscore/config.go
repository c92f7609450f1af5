package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/svscore/internal/extract"
	"github.com/inodb/svscore/internal/report"
)

const configName = ".svscore.yaml"

// initConfig loads ~/.svscore.yaml (or cfgFile) and SVSCORE_* environment
// variables on top of the built-in defaults.
func initConfig(cfgFile string) error {
	viper.SetDefault("columns.chrom", extract.DefaultColumns.Chrom)
	viper.SetDefault("columns.start", extract.DefaultColumns.Start)
	viper.SetDefault("columns.end", extract.DefaultColumns.End)
	viper.SetDefault("columns.vars", extract.DefaultColumns.Vars)
	viper.SetDefault("columns.scores", extract.DefaultColumns.Scores)
	viper.SetDefault("workers", 0)
	viper.SetDefault("delimiter", "tab")
	viper.SetDefault("duckdb", "")
	viper.SetDefault("report.threshold", 10.0)
	viper.SetDefault("report.causal_labels", report.DefaultCausalLabels)

	viper.SetEnvPrefix("SVSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(filepath.Join(home, configName))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (cfgFile == "" && errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// columnsFromConfig returns the input column names after config overrides.
func columnsFromConfig() extract.Columns {
	return extract.Columns{
		Chrom:  viper.GetString("columns.chrom"),
		Start:  viper.GetString("columns.start"),
		End:    viper.GetString("columns.end"),
		Vars:   viper.GetString("columns.vars"),
		Scores: viper.GetString("columns.scores"),
	}
}

// bindFlags binds command flags to config keys. Binding happens when the
// command runs so commands sharing a key do not override each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage svscore configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.svscore.yaml.",
		Example: `  svscore config                              # show all config
  svscore config set columns.chrom '#CHROM'   # rename the chromosome column
  svscore config get report.threshold         # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# Config file: %s\n", used)
	}
	_, err = w.Write(out)
	return err
}

func runConfigSet(w io.Writer, key, value string) error {
	if strings.HasSuffix(key, "causal_labels") {
		viper.Set(key, strings.Split(value, ","))
	} else {
		viper.Set(key, value)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName)
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}
