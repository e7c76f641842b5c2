package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/apitest"
	"storefront/models"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("API_RATE_LIMIT", "0")
	t.Setenv("THUMBNAIL_CACHE_DIR", t.TempDir())

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config=", "--env-file=" + filepath.Join(t.TempDir(), "none.env")}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestLoginCommand(t *testing.T) {
	backend := apitest.NewBackend(t)

	stdout, stderr, err := run(t, "login", "--api-url", backend.URL(), "-u", "crio.do", "-p", "learnwithcrio")
	require.NoError(t, err)
	assert.Contains(t, stdout, "crio.do (balance $5,000)")
	assert.Contains(t, stderr, "logged in")

	_, stderr, err = run(t, "login", "--api-url", backend.URL(), "-u", "crio.do", "-p", "wrongpass")
	require.Error(t, err)
	assert.Contains(t, stderr, "Password is incorrect")
}

func TestRegisterCommand(t *testing.T) {
	backend := apitest.NewBackend(t)

	_, stderr, err := run(t, "register", "--api-url", backend.URL(), "-u", "newvisitor", "-p", "secret1", "--confirm", "secret1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Registration Successful")

	_, stderr, err = run(t, "register", "--api-url", backend.URL(), "-u", "newvisitor", "-p", "secret1", "--confirm", "secret2")
	require.Error(t, err)
	assert.Contains(t, stderr, "Passwords do not match")
}

func TestExportCommand_HTML(t *testing.T) {
	backend := apitest.NewBackend(t)
	backend.SetCart([]models.CartEntry{{ProductID: "KCRwjF7lN97HnEaY", Qty: 2}})
	out := filepath.Join(t.TempDir(), "summary.html")

	_, stderr, err := run(t, "export", "--api-url", backend.URL(),
		"-u", "crio.do", "-p", "learnwithcrio", "--format", "html", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "order summary written to")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Order Details")
	assert.Contains(t, string(data), "UNIFACTOR Mens Running Shoes")
	assert.Contains(t, string(data), "$100")
}

func TestExportCommand_Validation(t *testing.T) {
	backend := apitest.NewBackend(t)

	_, _, err := run(t, "export", "--api-url", backend.URL(), "-u", "", "-p", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--username is required")

	_, _, err = run(t, "export", "--api-url", backend.URL(), "-u", "crio.do", "-p", "learnwithcrio", "--format", "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigValidationFails(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "")
	_, _, err := run(t, "login", "--api-url", "", "-u", "crio.do", "-p", "learnwithcrio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront API URL not configured")
}
