package database

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/backup"
)

// backupTables lists what a backup archive contains. backup_run itself is
// excluded: restoring backup history from a backup is not useful.
var backupTables = []string{
	"user",
	"invoice",
	"payroll_record",
	"payroll_summary",
	"class",
	"student",
	"attendance_record",
	"newsletter",
	"form",
	"newsletter_form",
	"team",
	"team_member",
	"backup_schedule",
}

type tableDumper struct {
	db *sqlx.DB
}

var _ backup.Dumper = (*tableDumper)(nil) // interface compliance check

func NewTableDumper(db *sqlx.DB) *tableDumper {
	return &tableDumper{db: db}
}

// DumpTables exports every application table as a JSON array of row objects.
func (d *tableDumper) DumpTables(ctx context.Context) (map[string][]byte, error) {
	dumps := make(map[string][]byte, len(backupTables))
	for _, table := range backupTables {
		data, err := d.dumpTable(ctx, table)
		if err != nil {
			return nil, errors.Wrapf(err, "dumping table %s", table)
		}
		dumps[table] = data
	}
	return dumps, nil
}

func (d *tableDumper) dumpTable(ctx context.Context, table string) ([]byte, error) {
	rows, err := d.db.QueryxContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err = rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			// MapScan yields []byte for text columns; keep them readable
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
