package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"voicegraph/backend/internal/graph"
)

var migrateForce bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the entity name uniqueness constraints in Neo4j",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := startGraph(cmd.Context())
		if err != nil {
			return err
		}
		defer manager.StopAll()

		store, ok := manager.Neo4j()
		if !ok {
			return fmt.Errorf("migrate requires the neo4j backend")
		}

		applied, err := store.EnsureSchema(cmd.Context(), migrateForce)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !applied {
			fmt.Fprintf(out, "migration %s already applied (use --force to reapply)\n", graph.SchemaVersion)
			return nil
		}
		for _, stmt := range graph.ConstraintStatements() {
			fmt.Fprintln(out, stmt)
		}
		fmt.Fprintf(out, "migration %s applied\n", graph.SchemaVersion)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "Reapply even if the migration marker exists")
}
