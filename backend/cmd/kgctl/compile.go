package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"voicegraph/backend/internal/graph"
)

var (
	compileExecute bool
	compileJSON    bool
)

// extractionFile is the input of compile: what the extractors would produce
type extractionFile struct {
	Entities graph.EntitySet `json:"entities"`
	Triples  []graph.Triple  `json:"triples"`
	Metadata graph.Metadata  `json:"metadata"`
}

type compiledStatement struct {
	Kind   string                 `json:"kind"`
	Cypher string                 `json:"cypher"`
	Params map[string]interface{} `json:"params"`
}

var compileCmd = &cobra.Command{
	Use:   "compile <extraction.json>",
	Short: "Compile entities and triples into graph merge statements",
	Long: `Reads a JSON file with "entities", "triples" and optional "metadata" and prints
the merge statements the pipeline would run. With --execute the batch is applied
to the configured graph backend.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading extraction file: %w", err)
		}

		var input extractionFile
		if err := json.Unmarshal(data, &input); err != nil {
			return fmt.Errorf("parsing extraction file: %w", err)
		}
		if input.Entities == nil {
			input.Entities = graph.EntitySet{}
		}

		statements := graph.Compile(input.Entities, input.Triples, input.Metadata)

		out := cmd.OutOrStdout()
		if compileJSON {
			compiled := make([]compiledStatement, len(statements))
			for i, s := range statements {
				compiled[i] = compiledStatement{Kind: s.Kind.String(), Cypher: s.Cypher, Params: s.Params}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(compiled); err != nil {
				return err
			}
		} else if len(statements) > 0 {
			fmt.Fprintln(out, graph.Render(statements))
		} else {
			fmt.Fprintln(out, "// no resolvable triples")
		}

		if !compileExecute {
			return nil
		}

		manager, err := startGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer manager.StopAll()

		batch, err := graph.ExecuteBatch(cmd.Context(), manager.Store(), statements)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "executed %d statements: %d nodes created, %d relationships created\n",
			batch.Statements, batch.NodesCreated, batch.RelationshipsCreated)
		return nil
	},
}

func init() {
	compileCmd.Flags().BoolVar(&compileExecute, "execute", false, "Apply the statements to the graph backend")
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "Print statements with parameters as JSON")
}
