package models

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// statementLog collects every statement the test database executes so
// assertions can check the SQL a helper produced.
type statementLog struct {
	mu    sync.Mutex
	stmts []string
}

func (l *statementLog) add(s string) {
	l.mu.Lock()
	l.stmts = append(l.stmts, s)
	l.mu.Unlock()
}

func (l *statementLog) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.stmts {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type recorderConnector struct{ log *statementLog }

func (c recorderConnector) Connect(context.Context) (driver.Conn, error) {
	return &recorderConn{log: c.log}, nil
}

func (c recorderConnector) Driver() driver.Driver { return recorderDriver{} }

type recorderDriver struct{}

func (recorderDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

type recorderConn struct{ log *statementLog }

func (c *recorderConn) Prepare(query string) (driver.Stmt, error) {
	return &recorderStmt{log: c.log, query: query}, nil
}

func (c *recorderConn) Close() error              { return nil }
func (c *recorderConn) Begin() (driver.Tx, error) { return recorderTx{}, nil }

func (c *recorderConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return recorderTx{}, nil
}

func (c *recorderConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.log.add(query)
	return recorderResult{}, nil
}

func (c *recorderConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.log.add(query)
	return emptyRows{}, nil
}

type recorderStmt struct {
	log   *statementLog
	query string
}

func (s *recorderStmt) Close() error  { return nil }
func (s *recorderStmt) NumInput() int { return -1 }

func (s *recorderStmt) Exec([]driver.Value) (driver.Result, error) {
	s.log.add(s.query)
	return recorderResult{}, nil
}

func (s *recorderStmt) Query([]driver.Value) (driver.Rows, error) {
	s.log.add(s.query)
	return emptyRows{}, nil
}

type recorderTx struct{}

func (recorderTx) Commit() error   { return nil }
func (recorderTx) Rollback() error { return nil }

type recorderResult struct{}

func (recorderResult) LastInsertId() (int64, error) { return 1, nil }
func (recorderResult) RowsAffected() (int64, error) { return 1, nil }

type emptyRows struct{}

func (emptyRows) Columns() []string         { return nil }
func (emptyRows) Close() error              { return nil }
func (emptyRows) Next([]driver.Value) error { return io.EOF }

func newRecordedDB(t *testing.T) (*gorm.DB, *statementLog) {
	t.Helper()
	log := &statementLog{}
	sqlDB := sql.OpenDB(recorderConnector{log: log})
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, log
}
