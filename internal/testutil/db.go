package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database for one test. It is an in-memory SQLite
// database unless TEST_DATABASE=postgres, which starts a PostgreSQL container.
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	Driver    string
	DSN       string
}

var tables = []string{
	"comments",
	"likes",
	"blog_posts",
	"user_sessions",
	"users",
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	testDB := &TestDB{Driver: "sqlite"}
	if os.Getenv("TEST_DATABASE") == "postgres" {
		testDB.Driver = "postgres"
		testDB.Container, testDB.DSN = startPostgres(t)
	} else {
		testDB.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	db, err := gormrepo.Open(testDB.Driver, testDB.DSN, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	testDB.DB = db

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

func startPostgres(t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("test_bloghub"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	return container, dsn
}

// Cleanup closes the connection and terminates the container, if any.
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range tables {
		stmt := fmt.Sprintf("DELETE FROM %s", table)
		if tdb.Driver == "postgres" {
			stmt = fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
		}
		if err := tdb.DB.Exec(stmt).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// Count returns the number of rows in table.
func (tdb *TestDB) Count(t *testing.T, table string) int64 {
	t.Helper()

	var n int64
	if err := tdb.DB.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
