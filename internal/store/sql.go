package store

import (
	"strings"

	"github.com/google/uuid"
)

// isUUID reports whether every id can be bound to a uuid column. Any other
// value cannot match a row, and Postgres rejects it with 22P02.
func isUUID(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

func selectSQL(table string, cols []string) string {
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + table
}

func insertSQL(table string, cols []string) string {
	params := make([]string, len(cols))
	for i, c := range cols {
		params[i] = ":" + c
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")"
}

// updateSQL sets every column except id, matching on id.
func updateSQL(table string, cols []string) string {
	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" {
			continue
		}
		sets = append(sets, c+" = :"+c)
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = :id"
}
