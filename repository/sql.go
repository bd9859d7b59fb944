package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentgraph/docengine/docerr"
	"github.com/contentgraph/docengine/workflow"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"go.uber.org/zap"
)

// SQLRepository is a relational Repository backend, grounded on the
// teacher shipping both a MySQL and a SQLite store side by side
// (graph/store/mysql.go, graph/store/sqlite.go): same schema and queries,
// only the driver name, DSN, column types, and upsert syntax differ. Instances and
// definitions are stored as JSON blobs under a handful of indexed columns
// so FindInstancesByDocument/FindInstancesByStatus avoid a full scan.
type SQLRepository struct {
	db     *sql.DB
	driver string // "mysql" or "sqlite"

	// Logger is optional and nil-safe, matching the way emit.Emitter is
	// injected elsewhere: a repository built without one simply stays
	// silent.
	Logger *zap.SugaredLogger
}

// NewSQLRepository opens a connection with the given driver ("mysql" or
// "sqlite") and dsn, and creates the schema if it doesn't exist.
func NewSQLRepository(driver, dsn string) (*SQLRepository, error) {
	if driver != "mysql" && driver != "sqlite" {
		return nil, fmt.Errorf("repository: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository: enable WAL: %w", err)
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	r := &SQLRepository{db: db, driver: driver}
	if err := r.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// WithLogger attaches a structured logger through which failed
// SaveInstance writes are logged; never required.
func (r *SQLRepository) WithLogger(l *zap.SugaredLogger) *SQLRepository {
	r.Logger = l
	return r
}

func (r *SQLRepository) logf(err error, msg string, keysAndValues ...interface{}) {
	if r.Logger == nil || err == nil {
		return
	}
	r.Logger.Errorw(msg, append(keysAndValues, "error", err, "driver", r.driver)...)
}

func (r *SQLRepository) createTables(ctx context.Context) error {
	idType := "TEXT"
	autoincrement := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == "mysql" {
		idType = "VARCHAR(255)"
		autoincrement = "INT AUTO_INCREMENT PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS workflow_instances (
			id %s PRIMARY KEY,
			document_id %s NOT NULL,
			definition_id %s NOT NULL,
			status %s NOT NULL,
			version INT NOT NULL DEFAULT 0,
			data TEXT NOT NULL
		)`, idType, idType, idType, idType),
		`CREATE INDEX IF NOT EXISTS idx_instances_document ON workflow_instances(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_status ON workflow_instances(status)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS workflow_definitions (
			id %s PRIMARY KEY,
			active BOOLEAN NOT NULL,
			data TEXT NOT NULL
		)`, idType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS workflow_audit (
			id %s,
			instance_id %s NOT NULL,
			action %s NOT NULL,
			actor %s NOT NULL,
			at TIMESTAMP NOT NULL,
			detail TEXT NOT NULL
		)`, autoincrement, idType, idType, idType),
		`CREATE INDEX IF NOT EXISTS idx_audit_instance ON workflow_audit(instance_id)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: create schema: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) upsertInstanceQuery() string {
	if r.driver == "mysql" {
		return `INSERT INTO workflow_instances (id, document_id, definition_id, status, version, data)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE document_id=VALUES(document_id), definition_id=VALUES(definition_id),
				status=VALUES(status), version=version+1, data=VALUES(data)`
	}
	return `INSERT INTO workflow_instances (id, document_id, definition_id, status, version, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document_id=excluded.document_id, definition_id=excluded.definition_id,
			status=excluded.status, version=version+1, data=excluded.data`
}

func (r *SQLRepository) upsertDefinitionQuery() string {
	if r.driver == "mysql" {
		return `INSERT INTO workflow_definitions (id, active, data) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE active=VALUES(active), data=VALUES(data)`
	}
	return `INSERT INTO workflow_definitions (id, active, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET active=excluded.active, data=excluded.data`
}

func (r *SQLRepository) SaveInstance(ctx context.Context, inst *workflow.Instance) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("repository: marshal instance: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.upsertInstanceQuery(), inst.ID, inst.DocumentID, inst.DefinitionID, string(inst.Status), 0, string(data))
	if err != nil {
		r.logf(err, "save instance failed", "instance_id", inst.ID)
		return docerr.RepositoryError(err.Error())
	}
	return nil
}

func (r *SQLRepository) LoadInstance(ctx context.Context, id string) (*workflow.Instance, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM workflow_instances WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, docerr.WorkflowNotFound(id)
	}
	if err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	var inst workflow.Instance
	if err := json.Unmarshal([]byte(data), &inst); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	return &inst, nil
}

func (r *SQLRepository) queryInstances(ctx context.Context, query string, arg string) ([]*workflow.Instance, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	defer func() { _ = rows.Close() }()

	var out []*workflow.Instance
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		var inst workflow.Instance
		if err := json.Unmarshal([]byte(data), &inst); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		out = append(out, &inst)
	}
	return out, rows.Err()
}

func (r *SQLRepository) FindInstancesByDocument(ctx context.Context, documentID string) ([]*workflow.Instance, error) {
	return r.queryInstances(ctx, `SELECT data FROM workflow_instances WHERE document_id = ?`, documentID)
}

func (r *SQLRepository) FindInstancesByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error) {
	return r.queryInstances(ctx, `SELECT data FROM workflow_instances WHERE status = ?`, string(status))
}

func (r *SQLRepository) UpdateInstanceStatus(ctx context.Context, id string, status workflow.Status) error {
	inst, err := r.LoadInstance(ctx, id)
	if err != nil {
		return err
	}
	inst.Status = status
	return r.SaveInstance(ctx, inst)
}

func (r *SQLRepository) DeleteInstance(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workflow_instances WHERE id = ?`, id)
	if err != nil {
		return docerr.RepositoryError(err.Error())
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return docerr.WorkflowNotFound(id)
	}
	_, _ = r.db.ExecContext(ctx, `DELETE FROM workflow_audit WHERE instance_id = ?`, id)
	return nil
}

func (r *SQLRepository) SaveDefinition(ctx context.Context, def *workflow.Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("repository: marshal definition: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.upsertDefinitionQuery(), def.ID, def.Active, string(data))
	if err != nil {
		return docerr.RepositoryError(err.Error())
	}
	return nil
}

func (r *SQLRepository) LoadDefinition(ctx context.Context, id string) (*workflow.Definition, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM workflow_definitions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, docerr.WorkflowNotFound(id)
	}
	if err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	var def workflow.Definition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	return &def, nil
}

func (r *SQLRepository) ListDefinitions(ctx context.Context) ([]*workflow.Definition, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM workflow_definitions`)
	if err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	defer func() { _ = rows.Close() }()

	var out []*workflow.Definition
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		var def workflow.Definition
		if err := json.Unmarshal([]byte(data), &def); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		out = append(out, &def)
	}
	return out, rows.Err()
}

func (r *SQLRepository) AppendAudit(ctx context.Context, entry AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO workflow_audit (instance_id, action, actor, at, detail) VALUES (?, ?, ?, ?, ?)`,
		entry.InstanceID, entry.Action, entry.Actor, entry.At, entry.Detail)
	if err != nil {
		return docerr.RepositoryError(err.Error())
	}
	return nil
}

func (r *SQLRepository) ListAudit(ctx context.Context, instanceID string) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT instance_id, action, actor, at, detail FROM workflow_audit WHERE instance_id = ? ORDER BY at ASC`, instanceID)
	if err != nil {
		return nil, docerr.RepositoryError(err.Error())
	}
	defer func() { _ = rows.Close() }()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.InstanceID, &e.Action, &e.Actor, &e.At, &e.Detail); err != nil {
			return nil, docerr.RepositoryError(err.Error())
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLRepository) RecoverRunning(ctx context.Context) ([]*workflow.Instance, error) {
	return r.FindInstancesByStatus(ctx, workflow.StatusRunning)
}

// Close closes the underlying database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}
