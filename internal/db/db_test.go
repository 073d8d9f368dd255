package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanillai/vanillai/internal/models"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
)

func TestIsSQLiteDSN(t *testing.T) {
	cases := map[string]bool{
		"file:vanillai.db":                           true,
		"file::memory:":                              true,
		"sqlite://data/app.sqlite":                   true,
		"data/app.db?_pragma=foreign_keys(1)":        true,
		":memory:":                                   true,
		"postgres://u:p@localhost:5432/app":          false,
		"host=localhost user=app dbname=app":         false,
		"postgresql://u@db.internal/app?sslmode=off": false,
	}
	for dsn, want := range cases {
		assert.Equal(t, want, IsSQLiteDSN(dsn), dsn)
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"file:vanillai.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		BuildSQLiteDSN(""))
	assert.Contains(t, BuildSQLiteDSN("file:x.db?cache=shared"), "file:x.db?cache=shared&_pragma=busy_timeout(5000)")
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestMigrateCreatesTablesAndDefaults(t *testing.T) {
	conn, err := Open(BuildSQLiteDSN(filepath.Join(t.TempDir(), "migrate.db")))
	require.NoError(t, err)
	assert.True(t, IsSQLite(conn))

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn))

	for _, model := range []any{&models.User{}, &models.AIModel{}, &models.AIModelDetail{}, &models.News{}, &models.Post{}, &models.Comment{}, &models.Setting{}} {
		assert.True(t, conn.Migrator().HasTable(model))
	}

	var setting models.Setting
	require.NoError(t, conn.Where("key = ?", internalsettings.SiteNameKey).First(&setting).Error)
	assert.JSONEq(t, `"VanillaAI"`, string(setting.Value))

	var count int64
	require.NoError(t, conn.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(6), count)
}

func TestContainsPatternEscapes(t *testing.T) {
	conn, err := Open("file::memory:")
	require.NoError(t, err)
	assert.Equal(t, "%gpt\\_4\\%%", ContainsPattern(conn, "GPT_4%"))
	assert.Equal(t, "%claude%", ContainsPattern(conn, " Claude "))
	assert.Equal(t, "LOWER(name) LIKE ? ESCAPE '\\'", CaseInsensitiveLikeExpr(conn, "name"))
}
