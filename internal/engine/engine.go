package engine

import (
	"context"
	"database/sql"
	"fmt"

	"alphadb/internal/alphadberr"
	"alphadb/internal/dialect"
	"alphadb/internal/source"
	"alphadb/internal/verify"
	"alphadb/internal/version"
)

// Status reports a database's recorded lifecycle state.
type Status struct {
	Initialized bool
	Version     string
	Name        string
	Template    string
}

// InitResult reports whether init created the configuration table and row
// or found them already in place (idempotence is not itself an error).
type InitResult struct {
	TableCreated bool
	RowCreated   bool
}

// Engine is a single dialect-bound, single-connection façade over
// connect/init/status/update_queries/update/vacate. It is not safe for
// concurrent use by multiple goroutines; each Engine owns one session for
// its lifetime.
type Engine struct {
	db      *sql.DB
	dialect dialect.Dialect
	dbName  string
}

// New constructs an Engine for the named dialect. The dialect must already
// be registered (imported for its init side effect).
func New(dialectType dialect.Type, dbName string) (*Engine, error) {
	d, err := dialect.GetDialect(dialectType)
	if err != nil {
		return nil, alphadberr.New(alphadberr.CodeUnknownDialect, err.Error())
	}
	return &Engine{dialect: d, dbName: dbName}, nil
}

// Connect opens the database session and verifies it is reachable.
func (e *Engine) Connect(ctx context.Context, driverName, dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, pingErr)
	}
	e.db = db
	return nil
}

// Close releases the owned session.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) requireConn() error {
	if e.db == nil {
		return alphadberr.New(alphadberr.CodeNotConnected, "engine is not connected")
	}
	return nil
}

// Init creates the configuration table if absent, then the configuration
// row for dbName if absent. Both checks are idempotent: calling Init twice
// reports what it found rather than erroring.
func (e *Engine) Init(ctx context.Context) (*InitResult, error) {
	if err := e.requireConn(); err != nil {
		return nil, err
	}
	result := &InitResult{}

	exists, err := e.tableExists(ctx, ConfigTable)
	if err != nil {
		return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
	}
	if !exists {
		ddl := fmt.Sprintf(
			"CREATE TABLE %s (db VARCHAR(100) NOT NULL, version VARCHAR(50) NOT NULL, template VARCHAR(50) NULL, PRIMARY KEY (db))",
			e.dialect.Generator().QuoteIdentifier(ConfigTable),
		)
		if _, err := e.db.ExecContext(ctx, ddl); err != nil {
			return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
		result.TableCreated = true
	}

	row := e.db.QueryRowContext(ctx, fmt.Sprintf("SELECT db FROM %s WHERE db = %s",
		e.dialect.Generator().QuoteIdentifier(ConfigTable), e.placeholder(1)), e.dbName)
	var found string
	if err := row.Scan(&found); err != nil {
		if err != sql.ErrNoRows {
			return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
		insert := fmt.Sprintf("INSERT INTO %s (db, version, template) VALUES (%s, %s, %s)",
			e.dialect.Generator().QuoteIdentifier(ConfigTable), e.placeholder(1), e.placeholder(2), e.placeholder(3))
		if _, err := e.db.ExecContext(ctx, insert, e.dbName, version.Zero, nil); err != nil {
			return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
		result.RowCreated = true
	}

	return result, nil
}

// Status reads the configuration row for dbName.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	if err := e.requireConn(); err != nil {
		return nil, err
	}
	exists, err := e.tableExists(ctx, ConfigTable)
	if err != nil {
		return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
	}
	if !exists {
		return &Status{Initialized: false}, nil
	}

	row := e.db.QueryRowContext(ctx, fmt.Sprintf("SELECT version, template FROM %s WHERE db = %s",
		e.dialect.Generator().QuoteIdentifier(ConfigTable), e.placeholder(1)), e.dbName)
	var v string
	var tmpl sql.NullString
	if err := row.Scan(&v, &tmpl); err != nil {
		if err == sql.ErrNoRows {
			return &Status{Initialized: false}, nil
		}
		return nil, alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
	}
	return &Status{Initialized: true, Version: v, Name: e.dbName, Template: tmpl.String}, nil
}

// UpdateQueries computes the ordered statement list to advance dbName from
// its stored version to target (or the source's latest version), per
// §4.11 steps 1-8.
func (e *Engine) UpdateQueries(ctx context.Context, src *source.Source, target string, noData bool) ([]Query, error) {
	status, err := e.Status(ctx)
	if err != nil {
		return nil, err
	}
	if !status.Initialized {
		return nil, alphadberr.New(alphadberr.CodeNotInitialized, "database "+e.dbName+" is not initialized")
	}
	if status.Version == "" {
		return nil, alphadberr.New(alphadberr.CodeNoVersionNumber, "no version recorded for "+e.dbName)
	}
	if status.Template != "" && status.Template != src.Name {
		return nil, alphadberr.New(alphadberr.CodeTemplateMismatch, "stored template "+status.Template+" does not match source name "+src.Name)
	}

	resolvedTarget, err := ResolveTarget(src, target)
	if err != nil {
		return nil, err
	}
	if version.Compare(resolvedTarget, status.Version) <= 0 {
		return nil, alphadberr.New(alphadberr.CodeUpToDate, e.dbName+" is already at or past "+resolvedTarget)
	}

	return Plan(src, status.Version, resolvedTarget, e.dbName, noData, e.dialect.Generator())
}

// Update computes and executes the update plan in one linear pass. When
// doVerify is true, the source is checked against the dialect's
// compatibility rules first and the call aborts if any issue exceeds
// tolerated.
func (e *Engine) Update(ctx context.Context, src *source.Source, target string, noData, doVerify bool, tolerated verify.ToleratedLevel) error {
	if doVerify {
		issues := verify.Source(src, e.dialect.Generator().CompatibilityRules())
		if verify.Aborts(issues, tolerated) {
			return alphadberr.New(alphadberr.CodeIncompatibleVersionAttrs, "verification issues exceed tolerated level")
		}
	}

	queries, err := e.UpdateQueries(ctx, src, target, noData)
	if err != nil {
		return err
	}
	for _, q := range queries {
		if _, err := e.db.ExecContext(ctx, q.SQL, q.Args...); err != nil {
			return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
	}
	return nil
}

// Vacate drops every table in the current schema.
func (e *Engine) Vacate(ctx context.Context) error {
	if err := e.requireConn(); err != nil {
		return err
	}
	tables, err := e.listTables(ctx)
	if err != nil {
		return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
	}

	gen := e.dialect.Generator()
	switch e.dialect.Name() {
	case dialect.MySQL:
		if _, err := e.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
			return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
		for _, t := range tables {
			if _, err := e.db.ExecContext(ctx, gen.DropTableStatement(t)); err != nil {
				_, _ = e.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
				return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
			}
		}
		if _, err := e.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1"); err != nil {
			return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
		}
	default:
		for _, t := range tables {
			if _, err := e.db.ExecContext(ctx, gen.DropTableStatement(t)); err != nil {
				return alphadberr.Wrap(alphadberr.CodeDatabaseDriver, err)
			}
		}
	}
	return nil
}

func (e *Engine) placeholder(n int) string {
	if e.dialect.Name() == dialect.PostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (e *Engine) tableExists(ctx context.Context, table string) (bool, error) {
	var query string
	switch e.dialect.Name() {
	case dialect.PostgreSQL:
		query = "SELECT to_regclass($1) IS NOT NULL"
	default:
		query = "SELECT COUNT(*) > 0 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	}
	row := e.db.QueryRowContext(ctx, query, table)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (e *Engine) listTables(ctx context.Context) ([]string, error) {
	var query string
	switch e.dialect.Name() {
	case dialect.PostgreSQL:
		query = "SELECT tablename FROM pg_tables WHERE schemaname = 'public'"
	default:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()"
	}
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
