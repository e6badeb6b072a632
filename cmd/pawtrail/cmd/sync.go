package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pawtrail/pawtrail-go/walks"
)

func guestBuffer(app *appContext) *walks.Buffer {
	return walks.NewBuffer(app.store)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the buffered guest walk to the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		app.sessions.Restore(cmd.Context())
		if !app.sessions.IsAuthenticated() {
			return fmt.Errorf("not signed in; run `pawtrail login` first")
		}

		migrated, err := app.migrator().MigratePending(cmd.Context(), guestBuffer(app))
		if err != nil {
			return err
		}
		if !migrated {
			fmt.Println("no guest walk buffered")
			return nil
		}
		fmt.Println("guest walk migrated")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <walk.json>",
	Short: "Buffer a guest walk recorded elsewhere",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var walk walks.GuestWalk
		if err := json.Unmarshal(data, &walk); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		app, err := newAppContext()
		if err != nil {
			return err
		}
		defer app.close()

		if err := guestBuffer(app).Save(cmd.Context(), walk); err != nil {
			return err
		}
		fmt.Println("guest walk buffered; it will migrate on the next sign-in or sync")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(importCmd)
}
