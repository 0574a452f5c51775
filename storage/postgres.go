package storage

import (
	"database/sql"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var PostgresDialect = Dialect{
	Name:        string(Postgres),
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	CreateTable: `CREATE TABLE IF NOT EXISTS %s(
	id BYTEA PRIMARY KEY,
	object_key VARCHAR(255) NOT NULL UNIQUE,
	body BYTEA NOT NULL,
	size BIGINT NOT NULL,
	last_modified TIMESTAMPTZ NOT NULL
);`,
}

func NewPostgresStorage(c PostgresConfig) (*SQLStorage, error) {
	db, err := sql.Open("pgx", c.ConnectionString)
	if err != nil {
		return nil, err
	}

	return openSQLStorage(db, PostgresDialect, c.BaseConfig, c.TableName, c.IDGenerator)
}
