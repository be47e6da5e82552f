package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wvclabs/customs-translator/internal/config"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.0.0", "abc123", "2026-01-01")

	assert.Equal(t, "customs-translator [flags]", cmd.Use)
	assert.Contains(t, cmd.Version, "1.0.0")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.Flags().Lookup("port"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestBuildServerWithoutCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customs-translator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// 没有任何凭据也能装配出可用的服务（词典兜底）
	srv, err := buildServer(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestBuildServerBadGlossary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customs-translator.yaml")
	content := "dictionary:\n  glossary_path: " + filepath.Join(t.TempDir(), "bad.yaml") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":::not yaml"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	cfg.Dictionary.GlossaryPath = bad

	_, err = buildServer(cfg, zap.NewNop())
	assert.Error(t, err)
}
