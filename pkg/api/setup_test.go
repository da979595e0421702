package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bakedtools/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolsFromConfigNeedsIdentity(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "adc.json")
	require.NoError(t, os.WriteFile(creds, []byte(`{"type":"authorized_user","client_id":"x","client_secret":"y","refresh_token":"z"}`), 0600))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", creds)
	t.Setenv("SPREADSHEET_ID", "ss-123")
	t.Setenv("BAKED_USER_EMAIL", "")

	cfg, err := config.New(filepath.Join(dir, "bakedtools.toml"))
	require.NoError(t, err)

	tools, err := NewToolsFromConfig(context.Background(), cfg)
	assert.Nil(t, tools)
	assert.True(t, errors.Is(err, ErrNoIdentity), "got %v", err)
}

func TestResolveIdentity(t *testing.T) {
	dir := t.TempDir()
	adc := filepath.Join(dir, "adc.json")
	require.NoError(t, os.WriteFile(adc, []byte(`{"type":"authorized_user"}`), 0600))
	sa := filepath.Join(dir, "willow.json")
	require.NoError(t, os.WriteFile(sa, []byte(`{"type":"service_account","client_email":"sync@proj.iam.gserviceaccount.com"}`), 0600))

	id, err := ResolveIdentity("coord@example.com", adc)
	require.NoError(t, err)
	assert.Equal(t, StaticIdentity("coord@example.com"), id)

	id, err = ResolveIdentity("", sa)
	require.NoError(t, err)
	assert.Equal(t, StaticIdentity("sync@proj.iam.gserviceaccount.com"), id)

	_, err = ResolveIdentity("  ", adc)
	assert.True(t, errors.Is(err, ErrNoIdentity), "got %v", err)
}
