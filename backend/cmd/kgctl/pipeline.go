package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"voicegraph/backend/internal/graph"
)

var (
	statementIdentity string
	statementSession  string
	statementTopic    string
)

var statementCmd = &cobra.Command{
	Use:   "statement <text>",
	Short: "Extract entities and triples from a statement and merge them into the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := startAll(cmd.Context())
		if err != nil {
			return err
		}
		defer manager.StopAll()

		meta := graph.Metadata{User: statementIdentity, Session: statementSession, Topic: statementTopic}
		result, err := manager.Pipeline().ProcessStatement(cmd.Context(), args[0], statementIdentity, meta)
		if result != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(result); encErr != nil {
				return encErr
			}
		}
		return err
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question with facts from the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := startAll(cmd.Context())
		if err != nil {
			return err
		}
		defer manager.StopAll()

		facts, err := manager.Pipeline().ProcessQuestion(cmd.Context(), args[0], statementIdentity)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(facts) == 0 {
			fmt.Fprintln(out, "no facts")
			return nil
		}
		for _, fact := range facts {
			fmt.Fprintln(out, fact)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{statementCmd, askCmd} {
		cmd.Flags().StringVar(&statementIdentity, "identity", "", "Name first-person references resolve to")
	}
	statementCmd.Flags().StringVar(&statementSession, "session", "", "Session stamped on new subject nodes")
	statementCmd.Flags().StringVar(&statementTopic, "topic", "", "Topic stamped on new subject nodes")
}
