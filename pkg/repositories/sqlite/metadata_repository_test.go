package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mekanixms/sqlite-mcp-server/pkg/errors"
)

func TestMetadataRepository_ListTables(t *testing.T) {
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		repo := NewMetadataRepository(newTestDatabase(t), testLogger(t))

		tables, err := repo.ListTables(ctx)
		require.NoError(t, err)
		assert.NotNil(t, tables)
		assert.Empty(t, tables)
	})

	t.Run("sorted and without internal tables", func(t *testing.T) {
		m := newTestDatabase(t,
			"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)",
			"CREATE TABLE accounts (id INTEGER)",
			"CREATE VIEW v_users AS SELECT * FROM users",
			"INSERT INTO users (name) VALUES ('a')",
		)
		repo := NewMetadataRepository(m, testLogger(t))

		tables, err := repo.ListTables(ctx)
		require.NoError(t, err)
		// sqlite_sequence exists because of AUTOINCREMENT; views are excluded.
		assert.Equal(t, []string{"accounts", "users"}, tables)
	})

	t.Run("user tables with an sqlite prefix", func(t *testing.T) {
		m := newTestDatabase(t,
			"CREATE TABLE sqlitestats (x INTEGER)",
			"CREATE TABLE sqlite2 (x INTEGER)",
			"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT)",
			"INSERT INTO users DEFAULT VALUES",
		)
		repo := NewMetadataRepository(m, testLogger(t))

		tables, err := repo.ListTables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"sqlite2", "sqlitestats", "users"}, tables)
	})
}

func TestMetadataRepository_TableExists(t *testing.T) {
	ctx := context.Background()
	repo := NewMetadataRepository(newTestDatabase(t, "CREATE TABLE users (id INTEGER)"), testLogger(t))

	exists, err := repo.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.TableExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.TableExists(ctx, "users' OR '1'='1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMetadataRepository_DescribeTable(t *testing.T) {
	ctx := context.Background()
	create := "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER DEFAULT 18, score REAL)"
	m := newTestDatabase(t,
		create,
		`CREATE TABLE "odd ""name""" (x TEXT)`,
	)
	repo := NewMetadataRepository(m, testLogger(t))

	t.Run("columns in declaration order", func(t *testing.T) {
		schema, err := repo.DescribeTable(ctx, "users")
		require.NoError(t, err)

		assert.Equal(t, "users", schema.Name)
		assert.Equal(t, create, schema.CreateStatement)
		require.Len(t, schema.Columns, 4)
		assert.Equal(t, []string{"id", "name", "age", "score"}, schema.ColumnNames())

		id := schema.Columns[0]
		assert.Equal(t, 0, id.Position)
		assert.Equal(t, "INTEGER", id.Type)
		assert.True(t, id.PrimaryKey)

		name := schema.Columns[1]
		assert.True(t, name.NotNull)
		assert.False(t, name.PrimaryKey)

		age := schema.Columns[2]
		assert.True(t, age.DefaultValue.Valid)
		assert.Equal(t, "18", age.DefaultValue.String)

		assert.False(t, schema.Columns[3].DefaultValue.Valid)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := repo.DescribeTable(ctx, "users")
		require.NoError(t, err)
		second, err := repo.DescribeTable(ctx, "users")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("quoted identifier", func(t *testing.T) {
		schema, err := repo.DescribeTable(ctx, `odd "name"`)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, schema.ColumnNames())
	})

	t.Run("not found", func(t *testing.T) {
		schema, err := repo.DescribeTable(ctx, "ghost")
		require.Error(t, err)
		assert.Nil(t, schema)
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.Equal(t, "ghost", pkgerrors.GetDetails(err)["table"])
	})

	t.Run("injection attempt is just a missing table", func(t *testing.T) {
		_, err := repo.DescribeTable(ctx, "users); DROP TABLE users; --")
		assert.True(t, pkgerrors.IsNotFound(err))

		_, err = repo.DescribeTable(ctx, "users")
		assert.NoError(t, err)
	})
}

func TestMetadataRepository_ConnectionFailure(t *testing.T) {
	repo := NewMetadataRepository(newMissingDatabase(t), testLogger(t))
	_, err := repo.ListTables(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConnection(err))
}
