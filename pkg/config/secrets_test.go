package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretsFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	secrets := map[string]string{
		"OPENAI_API_KEY": "sk-test-abc123",
		"GEMINI_API_KEY": "g-test-xyz789",
	}

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", secrets))
	assert.True(t, SecretsFileExists(dir))

	decrypted, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, secrets, decrypted)
}

func TestDecryptSecretsFile_WrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncryptSecretsFile(dir, "correct", map[string]string{"K": "v"}))

	_, err := DecryptSecretsFile(dir, "incorrect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")
}

func TestDecryptSecretsFile_Corrupted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, secretsDirName, secretsFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))

	_, err := DecryptSecretsFile(dir, "any")
	assert.Error(t, err)
}

func TestSecretsFilePermissions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncryptSecretsFile(dir, "pw", map[string]string{"K": "v"}))

	info, err := os.Stat(filepath.Join(dir, secretsDirName, secretsFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGetSecret_Precedence(t *testing.T) {
	t.Cleanup(func() { SetDecryptedSecrets(nil) })

	t.Setenv("REIA_TEST_SECRET", "from-env")

	value, err := GetSecret("REIA_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	// In-memory secrets win over the environment.
	SetDecryptedSecrets(map[string]string{"REIA_TEST_SECRET": "from-file"})
	value, err = GetSecret("REIA_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestGetSecret_Missing(t *testing.T) {
	t.Cleanup(func() { SetDecryptedSecrets(nil) })
	SetDecryptedSecrets(nil)

	_, err := GetSecret("REIA_DEFINITELY_MISSING")
	assert.Error(t, err)
}

func TestSetSecret(t *testing.T) {
	t.Cleanup(func() { SetDecryptedSecrets(nil) })

	SetSecret("REIA_SET_SECRET", "value1")
	value, err := GetSecret("REIA_SET_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value1", value)
}
