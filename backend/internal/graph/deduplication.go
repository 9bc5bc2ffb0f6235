package graph

// factRow is one matched (subject, relation, object) edge read back from a store.
type factRow struct {
	Subject  string
	Relation string
	Object   string
}

// deduplicateRows drops rows repeating an earlier row exactly. Rows that
// differ only in case or spacing are distinct edges and are all kept.
func deduplicateRows(rows []factRow) []factRow {
	if len(rows) <= 1 {
		return rows
	}

	seen := make(map[factRow]bool, len(rows))
	unique := rows[:0:0]
	for _, row := range rows {
		if seen[row] {
			continue
		}
		seen[row] = true
		unique = append(unique, row)
	}
	return unique
}
