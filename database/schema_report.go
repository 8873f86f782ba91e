package database

import (
	"fmt"
	"io"
	"sort"

	"gorm.io/gorm"
)

// TableDrift lists the differences between a model and its live table.
type TableDrift struct {
	Table   string
	Absent  bool     // table does not exist yet
	Extra   []string // columns in the database the model does not know
	Missing []string // model fields with no column
}

func (d TableDrift) Clean() bool {
	return !d.Absent && len(d.Extra) == 0 && len(d.Missing) == 0
}

// SchemaDrift compares every model against the connected database.
func SchemaDrift(db *gorm.DB) ([]TableDrift, error) {
	migrator := db.Migrator()
	var report []TableDrift

	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		drift := TableDrift{Table: stmt.Schema.Table}

		if !migrator.HasTable(model) {
			drift.Absent = true
			report = append(report, drift)
			continue
		}

		columnTypes, err := migrator.ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", drift.Table, err)
		}
		live := make(map[string]bool, len(columnTypes))
		for _, ct := range columnTypes {
			live[ct.Name()] = true
		}
		known := make(map[string]bool, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			known[name] = true
			if !live[name] {
				drift.Missing = append(drift.Missing, name)
			}
		}
		for name := range live {
			if !known[name] {
				drift.Extra = append(drift.Extra, name)
			}
		}
		sort.Strings(drift.Extra)
		sort.Strings(drift.Missing)
		report = append(report, drift)
	}
	return report, nil
}

// WriteSchemaReport prints a human readable drift report and returns the
// number of tables that differ from their model.
func WriteSchemaReport(w io.Writer, report []TableDrift) int {
	dirty := 0
	for _, d := range report {
		fmt.Fprintf(w, "--- Table: %s ---\n", d.Table)
		switch {
		case d.Absent:
			fmt.Fprintln(w, "Table does not exist yet (run migrate)")
		case d.Clean():
			fmt.Fprintln(w, "All columns are accounted for in the model.")
		}
		for _, col := range d.Missing {
			fmt.Fprintf(w, "  missing column: %s\n", col)
		}
		for _, col := range d.Extra {
			fmt.Fprintf(w, "  unmapped column: %s\n", col)
		}
		if !d.Clean() {
			dirty++
		}
	}
	fmt.Fprintf(w, "\n%d of %d tables differ from their model\n", dirty, len(report))
	return dirty
}
