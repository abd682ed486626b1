package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "secret", "db.local", "3306", "smartstay")
	assert.Contains(t, dsn, "app:secret@tcp(db.local:3306)/smartstay")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSNWithoutPassword(t *testing.T) {
	dsn := DSN("app", "", "localhost", "3306", "smartstay")
	assert.Contains(t, dsn, "app@tcp(localhost:3306)/smartstay")
}
