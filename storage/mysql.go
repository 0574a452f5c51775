package storage

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
)

var MySQLDialect = Dialect{
	Name:        string(MySQL),
	Placeholder: func(int) string { return "?" },
	CreateTable: `CREATE TABLE IF NOT EXISTS %s(
	id BINARY(16) PRIMARY KEY,
	object_key VARCHAR(255) NOT NULL UNIQUE,
	body MEDIUMBLOB NOT NULL,
	size BIGINT NOT NULL,
	last_modified DATETIME(6) NOT NULL
);`,
}

// MySQLDSN renders a DSN that lets the driver scan DATETIME into time.Time.
func MySQLDSN(user, password, addr, db string) string {
	mysqlDriverConfig := mysql.NewConfig()
	mysqlDriverConfig.User = user
	mysqlDriverConfig.Passwd = password
	mysqlDriverConfig.Addr = addr
	mysqlDriverConfig.Net = "tcp"
	mysqlDriverConfig.DBName = db
	mysqlDriverConfig.ParseTime = true

	return mysqlDriverConfig.FormatDSN()
}

func NewMySQLStorage(c MySQLConfig) (*SQLStorage, error) {
	db, err := sql.Open("mysql", c.ConnectionString)
	if err != nil {
		return nil, err
	}

	return openSQLStorage(db, MySQLDialect, c.BaseConfig, c.TableName, c.IDGenerator)
}

func openSQLStorage(db *sql.DB, dialect Dialect, base BaseConfig, tableName string, gen IDGenerator) (*SQLStorage, error) {
	st, err := NewSQLStorage(db, dialect, tableName, gen)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if base.Migrate {
		if err := st.Migrate(contextOrBackground(base.Ctx)); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return st, nil
}
