package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/phone-insight/internal/model"
)

var enrichFormat string

var enrichCmd = &cobra.Command{
	Use:   "enrich <phone>",
	Short: "Enrich a single phone number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phone := args[0]
		if strings.TrimSpace(phone) == "" {
			return eris.New("enrich: phone must not be blank")
		}

		ctx := cmd.Context()
		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Run(ctx, phone)

		zap.L().Info("enrichment complete",
			zap.String("phone", model.MaskPhone(phone)),
			zap.String("status", string(result.SalesInsightReport.Status)),
		)

		return writeOutput(os.Stdout, result, enrichFormat)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "json", "output format (json or yaml)")
	rootCmd.AddCommand(enrichCmd)
}
