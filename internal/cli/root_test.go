package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"lsablog/internal/config"
	"lsablog/internal/identity"
	"lsablog/internal/models"
	"lsablog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{LoadConfig: func() (*config.Config, error) { return cfg, nil }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:          "test",
		StoreBackend: config.StoreSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "blog.db"),
		JWTSecret:    testutil.TokenSecret,
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "blogctl", cmd.Use)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"token"},
		{"events", "tail"},
	}

	for _, path := range paths {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestSeedCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	seedCmd, _, err := cmd.Find([]string{"seed"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"fake-posts":   "0",
		"max-comments": "3",
		"max-likes":    "5",
		"seed":         "1",
	} {
		f := seedCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestTokenCommand(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := testCommand(t, cfg, "token", testutil.Alice.ID, "--name", testutil.Alice.DisplayName, "--ttl", "1h")
	require.NoError(t, err)

	user, err := identity.NewVerifier(cfg.JWTSecret, "", "").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, testutil.Alice.ID, user.ID)
	assert.Equal(t, testutil.Alice.DisplayName, user.DisplayName)
}

func TestTokenCommandRefusesProduction(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Env = "production"

	_, err := testCommand(t, cfg, "token", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing")
}

func TestTokenCommandRequiresUserID(t *testing.T) {
	_, err := testCommand(t, sqliteConfig(t), "token")
	require.Error(t, err)
}

func TestMigrateRejectsMemoryStore(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.StoreBackend = config.StoreMemory

	_, err := testCommand(t, cfg, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")
}

func TestMigrateUpAndStatusOnSQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := testCommand(t, cfg, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, err = testCommand(t, cfg, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "mode:        auto")
	assert.Contains(t, out, "auto-migrated")
}

func TestMigrateDownNeedsSQLMode(t *testing.T) {
	_, err := testCommand(t, sqliteConfig(t), "migrate", "down", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_SCHEMA_MODE=sql")

	_, err = testCommand(t, sqliteConfig(t), "migrate", "down", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")
}

func TestSeedCommand(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := testCommand(t, cfg, "seed", "--fake-posts", "2", "--max-comments", "0", "--max-likes", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 6 posts, 0 comments, 0 likes")

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	require.NoError(t, err)
	var total, drafts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&total).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("published = ?", false).Count(&drafts).Error)
	assert.Equal(t, int64(6), total)
	assert.Equal(t, int64(1), drafts)
}

func TestSeedCommandValidatesFlags(t *testing.T) {
	_, err := testCommand(t, sqliteConfig(t), "seed", "--fake-posts", "-1")
	require.Error(t, err)

	_, err = testCommand(t, sqliteConfig(t), "seed", "--fixtures", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open fixtures")
}

func TestEventsTailRequiresRedis(t *testing.T) {
	_, err := testCommand(t, sqliteConfig(t), "events", "tail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}
