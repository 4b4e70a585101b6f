package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

const notifyChannel = "docstore_changes"

const (
	createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
        collection TEXT NOT NULL,
        id TEXT NOT NULL,
        data JSONB NOT NULL DEFAULT '{}',
        "updatedAt" TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (collection, id)
    )`

	createNotifyFunction = `CREATE OR REPLACE FUNCTION documents_notify() RETURNS trigger AS $$
    BEGIN
        IF TG_OP = 'DELETE' THEN
            PERFORM pg_notify('docstore_changes', OLD.collection);
        ELSE
            PERFORM pg_notify('docstore_changes', NEW.collection);
        END IF;
        RETURN NULL;
    END
    $$ LANGUAGE plpgsql`

	dropNotifyTrigger   = `DROP TRIGGER IF EXISTS documents_notify ON documents`
	createNotifyTrigger = `CREATE TRIGGER documents_notify AFTER INSERT OR UPDATE OR DELETE ON documents
        FOR EACH ROW EXECUTE FUNCTION documents_notify()`

	getDocumentQuery    = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	createDocumentQuery = `INSERT INTO documents (collection, id, data, "updatedAt") VALUES ($1, $2, $3::jsonb, now())
        ON CONFLICT (collection, id) DO NOTHING`
	setDocumentQuery = `INSERT INTO documents (collection, id, data, "updatedAt") VALUES ($1, $2, $3::jsonb, now())
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, "updatedAt" = now()`
	updateDocumentQuery = `UPDATE documents SET data = data || $3::jsonb, "updatedAt" = now() WHERE collection = $1 AND id = $2`
	deleteDocumentQuery = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	listDocumentsQuery  = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`
	filterDocumentQuery = `SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY id`
)

// PostgresStore keeps every collection in one JSONB table. Change
// subscriptions use LISTEN/NOTIFY fed by a row trigger.
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore wraps an open *sql.DB. dsn is only needed for Watch,
// which opens its own listener connection.
func NewPostgresStore(db *sql.DB, dsn string) *PostgresStore {
	return &PostgresStore{db: db, dsn: dsn}
}

// EnsureSchema creates the documents table and its notify trigger.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createDocumentsTable, createNotifyFunction, dropNotifyTrigger, createNotifyTrigger} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("docstore: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if !validCollection(collection) {
		return Document{}, ErrInvalidCollection
	}
	var raw []byte
	if err := s.db.QueryRowContext(ctx, getDocumentQuery, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	data, err := decodeJSON(raw)
	if err != nil {
		return Document{}, fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, createDocumentQuery, collection, id, string(raw))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, setDocumentQuery, collection, id, string(raw))
	return err
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updateDocumentQuery, collection, id, string(raw))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	_, err := s.db.ExecContext(ctx, deleteDocumentQuery, collection, id)
	return err
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if !validCollection(collection) {
		return nil, ErrInvalidCollection
	}
	var (
		rows *sql.Rows
		err  error
	)
	if len(filters) == 0 {
		rows, err = s.db.QueryContext(ctx, listDocumentsQuery, collection)
	} else {
		match := make(map[string]any, len(filters))
		for _, f := range filters {
			match[f.Field] = f.Value
		}
		raw, mErr := json.Marshal(match)
		if mErr != nil {
			return nil, mErr
		}
		rows, err = s.db.QueryContext(ctx, filterDocumentQuery, collection, string(raw))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decodeJSON(raw)
		if err != nil {
			log.Printf("[docstore] WARN: skipping undecodable document %s/%s: %v", collection, id, err)
			continue
		}
		out = append(out, Document{ID: id, Data: data})
	}
	return out, rows.Err()
}

// Watch opens a pq listener on the notify channel and re-queries the
// collection whenever a row in it changes.
func (s *PostgresStore) Watch(ctx context.Context, collection string, fn WatchFunc) error {
	if !validCollection(collection) {
		return ErrInvalidCollection
	}
	if s.dsn == "" {
		return errors.New("docstore: postgres watch requires a DSN")
	}
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[docstore] WARN: listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("docstore: listen %s: %w", notifyChannel, err)
	}

	deliver := func() {
		docs, err := s.Query(ctx, collection)
		if err != nil {
			if ctx.Err() == nil {
				fn(nil, err)
			}
			return
		}
		fn(docs, nil)
	}

	go func() {
		defer listener.Close()
		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				// nil after a reconnect: changes may have been missed
				if n == nil || n.Extra == collection {
					deliver()
				}
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func decodeJSON(raw []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
