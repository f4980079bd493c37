package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var retrieveAnswer bool

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Run the retrieval pipeline once and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().BoolVar(&retrieveAnswer, "answer", false, "also generate the grounded answer")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.LoadCorpus(cmd.Context()); err != nil {
		return err
	}
	question := strings.Join(args, " ")

	var payload any
	if retrieveAnswer {
		payload, err = app.Answerer.Answer(cmd.Context(), question)
	} else {
		payload, err = app.Retriever.Retrieve(cmd.Context(), question)
	}
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
