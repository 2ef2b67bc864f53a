package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PeakTab/pkg/formula"
	"github.com/ChrisMcGann/PeakTab/pkg/reader/peaktable"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a sample table",
	Long: `Check that a sample table has the expected metadata block and column
header, and report dropped rows and formulas that cannot be decomposed.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(c *cobra.Command, args []string) error {
	s, err := settings()
	if err != nil {
		return err
	}
	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", path)
	}

	rows, st, err := peaktable.Load(path, s.Layout())
	if err != nil {
		return err
	}

	unparseable := 0
	for _, row := range rows {
		if !formula.Decompose(row.Formula).Parsed {
			fmt.Fprintf(os.Stderr, "Warning: formula %q has no element tokens\n", row.Formula)
			unparseable++
		}
	}

	fmt.Printf("File: %s\n", path)
	fmt.Printf("Rows: %d\n", st.Rows)
	if st.DroppedBlank > 0 {
		fmt.Printf("Dropped: %d rows without formula\n", st.DroppedBlank)
	}
	if st.DroppedEcho > 0 {
		fmt.Printf("Dropped: %d repeated header rows\n", st.DroppedEcho)
	}
	if unparseable > 0 {
		fmt.Printf("Unparseable formulas: %d\n", unparseable)
	}
	fmt.Println("OK")
	return nil
}
