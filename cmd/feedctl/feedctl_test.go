package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DB_DSN", "RUN_MIGRATIONS", "MIGRATIONS_DIR", "FEED_SCHEMA_PATH",
		"PUBLIC_BASE_URL", "REDIS_URL", "JWT_PUBLIC_KEY_PEM",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("ENV", "dev")
	t.Setenv("STATE_BACKEND", "memory")
	t.Setenv("SITE_DOMAIN", "shop.example")
	t.Setenv("SITE_SCHEME", "https")
	t.Setenv("LOG_LEVEL", "error")
}

func TestKeysGenThenTokenMint(t *testing.T) {
	dir := t.TempDir()

	out, _, err := execute(t, "keys", "gen", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "jwt_private.pem"))

	info, err := os.Stat(filepath.Join(dir, "jwt_private.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	privPEM, err := os.ReadFile(filepath.Join(dir, "jwt_private.pem"))
	require.NoError(t, err)
	pubPEM, err := os.ReadFile(filepath.Join(dir, "jwt_public.pem"))
	require.NoError(t, err)

	// single-line env form with literal \n escapes
	t.Setenv("TEST_SIGNING_KEY", strings.ReplaceAll(string(privPEM), "\n", `\n`))

	out, _, err = execute(t, "token", "mint", "--env", "TEST_SIGNING_KEY", "--tenant", "7", "--sub", "catalog-sync")
	require.NoError(t, err)

	pub, err := auth.ParseRSAPublicKeyPEM(string(pubPEM))
	require.NoError(t, err)

	claims, err := auth.ParseAndValidateRS256(strings.TrimSpace(out), pub)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.TenantID)
	assert.Equal(t, "catalog-sync", claims.Subject)
	assert.Equal(t, auth.DefaultIssuer, claims.Issuer)
}

func TestKeysGen_RefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "keys", "gen", "--out", dir)
	require.NoError(t, err)

	_, _, err = execute(t, "keys", "gen", "--out", dir)
	require.Error(t, err)

	_, _, err = execute(t, "keys", "gen", "--out", dir, "--force")
	require.NoError(t, err)
}

func TestTokenMint_MissingKey(t *testing.T) {
	t.Setenv("TEST_SIGNING_KEY", "")

	_, _, err := execute(t, "token", "mint", "--env", "TEST_SIGNING_KEY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_SIGNING_KEY is not set")
}

func TestMigrateList_UsesEmbeddedSet(t *testing.T) {
	out, _, err := execute(t, "migrate", "--list")
	require.NoError(t, err)
	assert.Equal(t, "0001_catalog.sql\n0002_feed_runs.sql\n", out)
}

func TestMigrate_RequiresDSN(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "migrate")
	require.Error(t, err)
}

func TestGenerate_FromCatalogFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	catalog := filepath.Join(dir, "catalog.ndjson")
	require.NoError(t, os.WriteFile(catalog, []byte(
		`{"product_key":"sku1","path":"/p/sku1/","brand":{"name":"Acme"},"short_name":"Runner","colour":"Red","prices":{"selling":"49.99"},"live":true}`+"\n"+
			`{"product_key":"sku2","path":"/p/sku2/","short_name":"Nameless"}`+"\n",
	), 0o644))

	feedPath := filepath.Join(dir, "google.xml")
	_, stderr, err := execute(t, "generate", "--catalog", catalog, "--out", feedPath)
	require.NoError(t, err)

	assert.Contains(t, stderr, "catalog: received=2 upserted=1 unchanged=0 rejected=1")
	assert.Contains(t, stderr, "completed")

	doc, err := os.ReadFile(feedPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<title>Acme Runner, Red</title>")
	assert.Contains(t, string(doc), "https://shop.example/p/sku1/")
}

func TestGenerate_ToStdout(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "generate")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<?xml"), "unexpected output: %q", out)
}

func TestGenerate_UnknownChannel(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "generate", "--channel", "bing")
	require.Error(t, err)
}
