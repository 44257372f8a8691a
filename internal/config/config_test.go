package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<API REQUEST_DUMP="true">
    <CONTEXT>
        <PORT>9090</PORT>
        <HOST>127.0.0.1</HOST>
        <PATH>api/</PATH>
        <MAX_CONNECTIONS>64</MAX_CONNECTIONS>
    </CONTEXT>
    <AUTHENTICATION>
        <TOKEN_SECRET>xml-secret</TOKEN_SECRET>
    </AUTHENTICATION>
    <ANSWERS ATOMIC="true"/>
    <MEDIA>
        <ROOT>/srv/media</ROOT>
        <URL>/files</URL>
    </MEDIA>
    <DB>
        <DRIVER>postgres</DRIVER>
        <HOST>db.internal</HOST>
        <PORT>5432</PORT>
        <NAMES EXPPRO="exppro_test"/>
        <USERNAME>exppro</USERNAME>
        <PASSWORD>from-xml</PASSWORD>
    </DB>
</API>`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.xml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 8000, cfg.Context.Port)
	assert.Equal(t, "/media/", cfg.Media.URL)
	assert.False(t, cfg.Answers.Atomic)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.Context.Path)
}

func TestLoadConfigParsesXML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleXML))
	require.NoError(t, err)

	assert.True(t, cfg.RequestDump)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, 64, cfg.Context.MaxConnections)
	assert.Equal(t, "xml-secret", cfg.Authentication.TokenSecret)
	assert.True(t, cfg.Answers.Atomic)
	assert.Equal(t, "/files/", cfg.Media.URL, "media URL gets a trailing slash")
	assert.Equal(t, "exppro_test", cfg.DB.Names.EXPPRO)
	assert.Equal(t, "/api", cfg.Context.Path, "route prefix is normalized")
	assert.Equal(t, "from-xml", cfg.DB.Password)
	// Elements absent from the file keep their defaults.
	assert.Equal(t, 10, cfg.Authentication.BcryptCost)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("EXPPRO_TOKEN_SECRET", "env-secret")
	t.Setenv("EXPPRO_DB_PASSWORD", "env-password")
	t.Setenv("EXPPRO_PORT", "7000")
	t.Setenv("EXPPRO_ANSWERS_ATOMIC", "false")

	cfg, err := LoadConfig(writeConfig(t, sampleXML))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Authentication.TokenSecret)
	assert.Equal(t, "env-password", cfg.DB.Password)
	assert.Equal(t, 7000, cfg.Context.Port)
	assert.False(t, cfg.Answers.Atomic)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Run("bad env integer", func(t *testing.T) {
		t.Setenv("EXPPRO_PORT", "eighty")
		_, err := LoadConfig(writeConfig(t, sampleXML))
		assert.Error(t, err)
	})
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("EXPPRO_DB_DRIVER", "oracle")
		_, err := LoadConfig(writeConfig(t, sampleXML))
		assert.ErrorContains(t, err, "unsupported DB driver")
	})
	t.Run("malformed xml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "<API><CONTEXT>"))
		assert.ErrorContains(t, err, "parse config")
	})
}
