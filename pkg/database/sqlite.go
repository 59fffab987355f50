package database

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// sqliteDialector stores decimal(p,s) columns as TEXT. sqlite gives a
// decimal column NUMERIC affinity and keeps such values as 8-byte REAL,
// which drops digits past the 15th.
type sqliteDialector struct {
	*sqlite.Dialector
}

func openSQLite(dsn string) gorm.Dialector {
	return sqliteDialector{Dialector: &sqlite.Dialector{DSN: dsn}}
}

func (d sqliteDialector) DataTypeOf(field *schema.Field) string {
	if isDecimalType(field.DataType) {
		return "TEXT"
	}
	return d.Dialector.DataTypeOf(field)
}

func (d sqliteDialector) Migrator(db *gorm.DB) gorm.Migrator {
	m := d.Dialector.Migrator(db).(sqlite.Migrator)
	m.Dialector = d
	return m
}

func isDecimalType(dataType schema.DataType) bool {
	t := strings.ToLower(strings.TrimSpace(string(dataType)))
	return strings.HasPrefix(t, "decimal") || strings.HasPrefix(t, "numeric")
}
