// Package interpret tokenizes and executes the command language
// described in the front end's external interface: help, quit, #
// comments, print, show database, create/drop table, insert, and
// select with an optional natural join and where clause.
package interpret

import (
	"strings"
	"time"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/google/uuid"
)

// Session tags a REPL run with an identifier so concurrent -c FILE
// runs in test harnesses leave distinguishable log lines.
type Session struct {
	ID uuid.UUID
	DB *catalog.Database
}

// NewSession mints a session over db.
func NewSession(db *catalog.Database) *Session {
	return &Session{ID: uuid.New(), DB: db}
}

// Execute parses and runs one statement. A blank line or a comment
// line yields (nil, nil). "quit" yields (nil, ErrQuit).
func (sess *Session) Execute(text string) (*ResultSet, error) {
	start := time.Now().UTC()
	db := sess.DB
	defer func() {
		db.Log.Debugf("session %s: duration %s", sess.ID, time.Now().UTC().Sub(start))
	}()

	db.Log.Debugf("session %s: exec %q", sess.ID, strings.TrimSpace(text))

	stmt, err := parseLine(text)
	if err != nil {
		db.Log.Error(err)
		return nil, err
	}
	if stmt == nil {
		return nil, nil
	}

	rs, err := execStatement(db, stmt)
	if err != nil && err != ErrQuit {
		db.Log.Error(err)
	}
	return rs, err
}
