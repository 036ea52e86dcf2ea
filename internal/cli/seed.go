package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quiz-generator-service/internal/config"
	"quiz-generator-service/internal/seed"
)

// NewSeedCmd creates question sets from the built-in banks or a workbook.
// Without a selection every built-in bank is seeded.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		all   bool
		list  bool
		names []string
		file  string
	)
	banks := seed.Banks()
	picked := make(map[string]*bool, len(banks))

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed question sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := banks
			var imported []seed.Bank
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				imported, err = seed.ReadWorkbook(f)
				f.Close()
				if err != nil {
					return err
				}
				pool = append(append([]seed.Bank(nil), banks...), imported...)
			}

			if list {
				for _, b := range pool {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s (%d questions)\n", b.Key, b.Name, len(b.Questions))
				}
				return nil
			}

			sel := seed.Selection{All: all, Names: names}
			for _, b := range banks {
				if *picked[b.Key] {
					sel.Keys = append(sel.Keys, b.Key)
				}
			}
			chosen, err := choose(pool, imported, file != "", sel)
			if err != nil {
				return err
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			report := seed.NewSeeder(store, cmd.OutOrStdout()).Run(cmd.Context(), chosen)
			if report.Added() == 0 && report.Failed() {
				return errors.New("no questions were seeded")
			}
			return nil
		},
	}

	for _, b := range banks {
		picked[b.Key] = cmd.Flags().Bool(b.Key, false, "seed "+b.Name)
	}
	cmd.Flags().BoolVar(&all, "all", false, "seed every built-in bank (default when nothing is selected)")
	cmd.Flags().StringArrayVar(&names, "set", nil, "seed the bank with this key or name (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "import an .xlsx workbook, one question set per sheet")
	cmd.Flags().BoolVar(&list, "list", false, "list available banks and exit")
	return cmd
}

// choose applies sel; a workbook given without any selection seeds only its sheets.
func choose(pool, imported []seed.Bank, fromFile bool, sel seed.Selection) ([]seed.Bank, error) {
	if fromFile && !sel.All && len(sel.Keys) == 0 && len(sel.Names) == 0 {
		if len(imported) == 0 {
			return nil, fmt.Errorf("%w: workbook has no question sheets", seed.ErrNoMatch)
		}
		return imported, nil
	}
	return seed.Select(pool, sel)
}
