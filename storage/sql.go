package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	currency "github.com/malusev998/currency-converter"
)

const idLength = 16

var (
	ErrNotEnoughBytesInGenerator = errors.New("id generator must return 16 bytes")
	ErrInvalidTableName          = errors.New("table name may contain only letters, digits and underscores")

	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	likeEscaper      = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

type (
	IDGenerator interface {
		Generate() []byte
	}

	uuidGenerator struct{}

	// Dialect holds what differs between the SQL databases objects are kept in.
	Dialect struct {
		Name        string
		Placeholder func(n int) string
		CreateTable string
	}

	SQLStorage struct {
		db          *sql.DB
		dialect     Dialect
		tableName   string
		idGenerator IDGenerator
	}
)

func (uuidGenerator) Generate() []byte {
	id := uuid.New()
	return id[:]
}

// NewSQLStorage stores objects as rows of tableName. The table is created by
// Migrate.
func NewSQLStorage(db *sql.DB, dialect Dialect, tableName string, idGenerator IDGenerator) (*SQLStorage, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, tableName)
	}

	if idGenerator == nil {
		idGenerator = uuidGenerator{}
	}

	return &SQLStorage{
		db:          db,
		dialect:     dialect,
		tableName:   tableName,
		idGenerator: idGenerator,
	}, nil
}

func (s *SQLStorage) query(format string, placeholders int) string {
	args := make([]interface{}, 0, placeholders+1)
	args = append(args, s.tableName)

	for i := 1; i <= placeholders; i++ {
		args = append(args, s.dialect.Placeholder(i))
	}

	return fmt.Sprintf(format, args...)
}

func (s *SQLStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(s.dialect.CreateTable, s.tableName)); err != nil {
		return unreachable("migrate", s.tableName, err)
	}

	return nil
}

func (s *SQLStorage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.query("SELECT object_key, size, last_modified FROM %s WHERE object_key LIKE %s ORDER BY object_key;", 1),
		likeEscaper.Replace(prefix)+"%",
	)
	if err != nil {
		return nil, unreachable("list", prefix, err)
	}

	defer rows.Close()

	objects := make([]currency.Object, 0)

	for rows.Next() {
		var obj currency.Object

		if err := rows.Scan(&obj.Key, &obj.Size, &obj.LastModified); err != nil {
			return nil, unreachable("list", prefix, err)
		}

		objects = append(objects, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, unreachable("list", prefix, err)
	}

	return objects, nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte

	row := s.db.QueryRowContext(ctx, s.query("SELECT body FROM %s WHERE object_key = %s;", 1), key)

	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(key)
		}

		return nil, unreachable("get", key, err)
	}

	return body, nil
}

// Put replaces the row stored under key inside one transaction.
func (s *SQLStorage) Put(ctx context.Context, key string, body []byte) error {
	id := s.idGenerator.Generate()

	if len(id) != idLength {
		return ErrNotEnoughBytesInGenerator
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unreachable("put", key, err)
	}

	if _, err := tx.ExecContext(ctx, s.query("DELETE FROM %s WHERE object_key = %s;", 1), key); err != nil {
		_ = tx.Rollback()
		return unreachable("put", key, err)
	}

	_, err = tx.ExecContext(
		ctx,
		s.query("INSERT INTO %s(id, object_key, body, size, last_modified) VALUES (%s,%s,%s,%s,%s);", 5),
		id, key, body, int64(len(body)), time.Now().UTC(),
	)
	if err != nil {
		_ = tx.Rollback()
		return unreachable("put", key, err)
	}

	if err := tx.Commit(); err != nil {
		return unreachable("put", key, err)
	}

	return nil
}

func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.query("DELETE FROM %s WHERE object_key = %s;", 1), key); err != nil {
		return unreachable("delete", key, err)
	}

	return nil
}

func (s *SQLStorage) GetStorageProviderName() string {
	return s.dialect.Name
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
