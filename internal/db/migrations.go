package db

import "context"

// Migration is a single idempotent additive schema step. Column-level steps
// set Column and use Definition as the column definition; table-level steps
// leave Column empty and use Definition as the full CREATE TABLE statement.
type Migration struct {
	Table      string
	Column     string
	Definition string
}

// Migrations is the ordered list of schema steps beyond the base schema.
// Each step is safe to request any number of times with identical end state,
// so the list can run eagerly at startup or lazily on first access to a
// feature needing the new shape.
var Migrations = []Migration{
	{Table: "settings", Definition: `CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`},
	{Table: "documents", Column: "storage_ref", Definition: "TEXT"},
	{Table: "documents", Column: "is_encrypted", Definition: "BOOLEAN NOT NULL DEFAULT FALSE"},
	{Table: "principals", Column: "location", Definition: "TEXT"},
	{Table: "principals", Column: "profile_offset_x", Definition: "BIGINT"},
	{Table: "principals", Column: "profile_offset_y", Definition: "BIGINT"},
	{Table: "companies", Column: "location", Definition: "TEXT"},
	{Table: "companies", Column: "domain", Definition: "TEXT"},
}

// Run applies the given migration steps in order, stopping at the first
// fatal error. Already-present objects are skipped silently.
func (g *Guard) Run(ctx context.Context, steps []Migration) error {
	for _, m := range steps {
		var err error
		if m.Column == "" {
			_, err = g.EnsureTable(ctx, m.Table, m.Definition)
		} else {
			_, err = g.EnsureColumn(ctx, m.Table, m.Column, m.Definition)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
