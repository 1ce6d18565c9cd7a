package connection

import "context"

// Driver executes SQL text against a database. Implementations own the wire
// protocol, timeouts and pooling; the connection only hands them statements.
type Driver interface {
	// Read runs a statement that returns rows.
	Read(ctx context.Context, sql string) (ResultSet, error)
	// Write runs a statement and returns the number of affected rows.
	Write(ctx context.Context, sql string) (int64, error)
	// LastInsertID returns the id generated by the most recent insert.
	LastInsertID() (string, bool)
	Close() error
}

// ResultSet iterates over the rows of a read.
type ResultSet interface {
	Next() bool
	// Row returns the current row as column name to scalar or nil.
	Row() map[string]interface{}
	Err() error
	Close() error
}

// FetchAll drains rs and closes it.
func FetchAll(rs ResultSet) ([]map[string]interface{}, error) {
	defer rs.Close()

	var rows []map[string]interface{}
	for rs.Next() {
		rows = append(rows, rs.Row())
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// NewStaticResultSet returns a result set over rows held in memory.
func NewStaticResultSet(rows []map[string]interface{}) ResultSet {
	return &staticResultSet{rows: rows, pos: -1}
}

type staticResultSet struct {
	rows []map[string]interface{}
	pos  int
}

func (s *staticResultSet) Next() bool {
	if s.pos+1 >= len(s.rows) {
		s.pos = len(s.rows)
		return false
	}
	s.pos++
	return true
}

func (s *staticResultSet) Row() map[string]interface{} {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil
	}
	row := make(map[string]interface{}, len(s.rows[s.pos]))
	for k, v := range s.rows[s.pos] {
		row[k] = v
	}
	return row
}

func (s *staticResultSet) Err() error   { return nil }
func (s *staticResultSet) Close() error { return nil }
