package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
)

var (
	genLanguage    string
	genDescription string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one contract and print the code",
	Long: `Runs a single generation against the configured model and template and
prints the extracted code block to stdout. History is not recorded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		generator, err := newGenerator(cfg, nil)
		if err != nil {
			return err
		}

		gen, err := generator.Generate(cmd.Context(), entity.GenerationRequest{
			Description: genDescription,
			Language:    genLanguage,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), gen.Code)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", string(entity.LanguageRust), "Target language (rust, typescript)")
	generateCmd.Flags().StringVarP(&genDescription, "description", "d", "", "Plain-language description of the contract")
	_ = generateCmd.MarkFlagRequired("description")

	rootCmd.AddCommand(generateCmd)
}
