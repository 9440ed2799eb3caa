package utils

import "strings"

// QuoteSQLString returns s as a single-quoted SQL string literal. DuckDB
// takes file paths of COPY and read_parquet only as literals.
func QuoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
