package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadDefaults(t *testing.T) {
	withFs(t)
	t.Setenv("RELORM_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(viper.New(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, &Config{LayoutsDir: "layouts"}, cfg)
}

func TestLoadFilePrecedence(t *testing.T) {
	fs := withFs(t)
	require.NoError(t, afero.WriteFile(fs, "conf.yaml", []byte("database_url: mysql://file/db\nlayouts_dir: schema\n"), 0o644))
	t.Setenv("RELORM_LAYOUTS_DIR", "")

	cfg, err := Load(viper.New(), nil, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mysql://file/db", cfg.DatabaseURL)
	assert.Equal(t, "schema", cfg.LayoutsDir)

	t.Setenv("RELORM_DATABASE_URL", "mysql://env/db")
	cfg, err = Load(viper.New(), nil, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mysql://env/db", cfg.DatabaseURL)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-url", "", "")
	flags.Bool("debug", false, "")
	require.NoError(t, flags.Parse([]string{"--database-url", "mysql://flag/db", "--debug"}))

	cfg, err = Load(viper.New(), flags, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mysql://flag/db", cfg.DatabaseURL)
	assert.True(t, cfg.Debug)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	withFs(t)
	_, err := Load(viper.New(), nil, "missing.yaml")
	assert.Error(t, err)
}

func TestDatabaseURLFallback(t *testing.T) {
	withFs(t)
	t.Setenv("RELORM_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "sqlite://:memory:")

	cfg, err := Load(viper.New(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite://:memory:", cfg.DatabaseURL)
}

func TestSave(t *testing.T) {
	fs := withFs(t)
	require.NoError(t, Save(&Config{DatabaseURL: "mysql://x/y", LayoutsDir: "l"}, "/home/.config/relorm/.relorm.yaml"))

	cfg, err := Load(viper.New(), nil, "/home/.config/relorm/.relorm.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mysql://x/y", cfg.DatabaseURL)
	assert.Equal(t, "l", cfg.LayoutsDir)

	ok, err := afero.Exists(fs, "/home/.config/relorm/.relorm.yaml")
	require.NoError(t, err)
	assert.True(t, ok)
}
