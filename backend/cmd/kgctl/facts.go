package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"voicegraph/backend/internal/graph"
)

var (
	factsLabel    string
	factsPhonetic bool
)

var factsCmd = &cobra.Command{
	Use:   "facts <name>...",
	Short: "Print every fact touching the given entity names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, ok := graph.ParseLabel(factsLabel)
		if !ok {
			return fmt.Errorf("unknown label %q", factsLabel)
		}

		manager, err := startGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer manager.StopAll()

		mode := graph.MatchExact
		if factsPhonetic {
			mode = graph.MatchPhonetic
		}

		entities := graph.EntitySet{}
		entities.Add(label, args...)
		facts, err := graph.NewFactRetriever(manager.Store(), mode).GetFacts(cmd.Context(), entities)
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
	factsCmd.Flags().StringVar(&factsLabel, "label", string(graph.LabelThing), "Label to file the names under (matching ignores labels)")
	factsCmd.Flags().BoolVar(&factsPhonetic, "phonetic", false, "Match names by Soundex code instead of exactly")
}
