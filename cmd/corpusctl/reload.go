package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var reloadReason string

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask every running API replica to reload the corpus",
	Args:  cobra.NoArgs,
	RunE:  runReload,
}

func init() {
	reloadCmd.Flags().StringVar(&reloadReason, "reason", "corpusctl", "reason recorded in the reload logs")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, _ []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Notifier == nil {
		return errors.New("NATS_URL is not set")
	}
	if err := app.Notifier.PublishReload(cmd.Context(), reloadReason); err != nil {
		return err
	}
	cmd.Printf("reload requested on %s\n", app.Config.NATSSubject)
	return nil
}
