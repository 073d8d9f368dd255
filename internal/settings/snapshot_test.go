package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanillai/vanillai/internal/models"
	"gorm.io/gorm"
)

func TestDBConfigValueWithoutSnapshot(t *testing.T) {
	dbConfig.Store(nil)
	_, ok := DBConfigValue(SiteNameKey)
	assert.False(t, ok)
	assert.Equal(t, DefaultSiteName, SiteName())
}

func TestPageSizeBounds(t *testing.T) {
	StoreDBConfig(map[string]json.RawMessage{
		ModelsPageSizeKey: json.RawMessage(`24`),
		NewsPageSizeKey:   json.RawMessage(`"500"`),
		PostsPageSizeKey:  json.RawMessage(`-3`),
	})
	t.Cleanup(func() { StoreDBConfig(nil) })

	assert.Equal(t, 24, PageSize(ModelsPageSizeKey, DefaultModelsPageSize))
	assert.Equal(t, MaxPageSize, PageSize(NewsPageSizeKey, DefaultNewsPageSize))
	assert.Equal(t, DefaultPostsPageSize, PageSize(PostsPageSizeKey, DefaultPostsPageSize))
}

func TestParseBool(t *testing.T) {
	cases := map[string]struct {
		value bool
		ok    bool
	}{
		`true`:    {true, true},
		`"on"`:    {true, true},
		`"off"`:   {false, true},
		`0`:       {false, true},
		`1`:       {true, true},
		`"maybe"`: {false, false},
		`2`:       {false, false},
	}
	for raw, want := range cases {
		value, ok := ParseBool(json.RawMessage(raw))
		assert.Equal(t, want.ok, ok, raw)
		assert.Equal(t, want.value, value, raw)
	}
}

func TestRefreshLoadsSettingsTable(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Setting{}))
	require.NoError(t, conn.Create(&models.Setting{Key: SiteNameKey, Value: []byte(`"Vanilla Lab"`)}).Error)
	require.NoError(t, conn.Create(&models.Setting{Key: RegistrationEnabledKey, Value: []byte(`false`)}).Error)
	t.Cleanup(func() { StoreDBConfig(nil) })

	require.NoError(t, Refresh(context.Background(), conn))
	assert.Equal(t, "Vanilla Lab", SiteName())
	assert.False(t, RegistrationEnabled())
}
