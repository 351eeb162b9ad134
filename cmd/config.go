package cmd

import (
	"fmt"
	"os"

	"clipkind/pkg/config"
	"clipkind/pkg/errors"

	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage clipkind configuration",
	Long:  `Show the effective configuration or write a default configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after the config file, environment variables and flags are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := newOutput(cmd)
		if output.IsStructured() {
			return output.Write(settings)
		}

		path, err := config.GetConfigPath()
		if err != nil {
			path = unknownValue
		}

		output.Printf("Current Configuration:\n")
		output.Printf("======================\n")
		output.Printf("Config file: %s\n", path)
		output.Printf("\n")
		output.Printf("Backend: %s\n", settings.Source.Backend)
		if settings.Source.Fixture != "" {
			output.Printf("Fixture: %s\n", settings.Source.Fixture)
		}
		output.Printf("Timeout: %s\n", settings.Source.Timeout)
		output.Printf("\n")
		output.Printf("OCR Language: %s\n", settings.OCR.Language)
		output.Printf("OCR Min Confidence: %g\n", settings.OCR.MinConfidence)
		output.Printf("Tessdata: %s\n", func() string {
			if settings.OCR.TessdataPrefix == "" {
				return "(auto)"
			}
			return settings.OCR.TessdataPrefix
		}())
		if settings.LogLevel != "" {
			output.Printf("Log Level: %s\n", settings.LogLevel)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default configuration file",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return errors.NewWithError(errors.KindConfig, "failed to get config path", err)
		}

		if _, err := os.Stat(path); err == nil && !configInitForce && !IsAssumeYes() {
			ok, err := ConfirmPrompt(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("%s exists. Replace it with defaults", path))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "Configuration left unchanged.")
				return nil
			}
		}

		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show configuration file path",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing file without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}
