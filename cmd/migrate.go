package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/devrihan/xeno-shopify/internal/config"
	"github.com/devrihan/xeno-shopify/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (dev: DROP & CREATE tables)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		dbx, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer dbx.Close()

		files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no migration files found under migrations/")
		}
		sort.Strings(files)

		for _, f := range files {
			stmt, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", f, err)
			}
			if _, err := dbx.Exec(string(stmt)); err != nil {
				return fmt.Errorf("apply %s: %w", f, err)
			}
			fmt.Printf(">> applied %s\n", f)
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}
