package sqldriver

import (
	"strings"

	"github.com/lib/pq"

	"github.com/satishbabariya/relorm/query/sqlgen"
)

// QuoterFor returns the literal quoter of a dialect.
func QuoterFor(d Dialect) sqlgen.Quoter {
	switch d {
	case Postgres:
		return sqlgen.QuoterFunc(pq.QuoteLiteral)
	case SQLite:
		return sqlgen.QuoterFunc(quoteSQLite)
	default:
		return sqlgen.MySQLQuoter{}
	}
}

func quoteSQLite(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
