package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkapoor/sortino/internal/modules/history"
)

func newImportCmd(a *app) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import price history from a CSV export into the database",
		Long: `Reads a wide-format CSV (first column "date" as YYYY-MM-DD, one column
per symbol, empty cells for non-trading days) and upserts it into the
history database. Re-importing the same file is safe; existing days are
overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := history.ReadCSVFile(csvPath)
			if err != nil {
				return fmt.Errorf("failed to read prices CSV: %w", err)
			}

			store, db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			points, err := store.Import(series)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d price points across %d symbols.\n", points, len(series))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to import (required)")
	cmd.MarkFlagRequired("csv")
	return cmd
}
