package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservations/utils"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cmd-test-secret")
	missing := filepath.Join(t.TempDir(), "none.yaml")

	out, err := run(t, "token", "--config", missing, "--role", "admin", "--user", "7")
	require.NoError(t, err)

	claims, err := utils.ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = run(t, "token", "--config", missing, "--role", "chef")
	assert.Error(t, err)
}

func TestMigrateThenTick(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JWT_SECRET", "cmd-test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "reservations.db"))
	cfgPath := filepath.Join(dir, "none.yaml")

	out, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = run(t, "tick", "--config", cfgPath)
	require.NoError(t, err)

	var result map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 0, result["scanned"])
}
