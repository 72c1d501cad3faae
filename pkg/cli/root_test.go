package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"specgraph/pkg/config"
	"specgraph/pkg/nserror"
)

const petstore = `openapi: 3.0.0
info:
  title: Pet Store
  version: "1.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pets'
components:
  schemas:
    Pets:
      type: array
`

const brokenRef = `openapi: 3.0.0
info:
  title: Broken
paths:
  /x:
    get:
      operationId: x
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Nope'
`

func writeSpecs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func run(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(ctx, zaptest.NewLogger(t), "1.2.3", "abc123", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(context.Background(), zaptest.NewLogger(t), "dev", "unknown", "unknown")
	assert.Equal(t, "specgraph", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "validate", "resolve", "config", "version"}, names)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(context.Background(), t, "version")
	require.NoError(t, err)
	assert.Equal(t, "specgraph version 1.2.3 (commit: abc123, built: today)\n", out)

	out, err = run(context.Background(), t, "version", "--detailed")
	require.NoError(t, err)
	assert.Contains(t, out, "Git Commit:   abc123")
	assert.Contains(t, out, "Go Version:")
}

func TestValidateCommand(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"petstore.yaml": petstore})

	out, err := run(context.Background(), t, "validate", dir)
	require.NoError(t, err)
	assert.Equal(t, "ok    petstore ("+filepath.Join(dir, "petstore.yaml")+")\n", out)
}

func TestValidateCommandReportsFailures(t *testing.T) {
	dir := writeSpecs(t, map[string]string{
		"petstore.yaml": petstore,
		"broken.yaml":   brokenRef,
	})

	out, err := run(context.Background(), t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 specs are invalid", err.Error())
	assert.Contains(t, out, "FAIL  broken ("+filepath.Join(dir, "broken.yaml")+")\n")
	assert.Contains(t, out, "broken > path: /x")
	assert.Contains(t, out, "ok    petstore ("+filepath.Join(dir, "petstore.yaml")+")\n")
}

func TestValidateCommandLoadFailure(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.yaml": "openapi: [unclosed"})

	_, err := run(context.Background(), t, "validate", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserror.ErrLoad))
}

func TestDescribe(t *testing.T) {
	err := nserror.New(nserror.Namespace{"petstore", "path: /pets"}, "boom")
	assert.Equal(t, "[petstore > path: /pets] boom", describe(err))
	assert.Equal(t, "plain", describe(errors.New("plain")))
}

func TestResolveCommand(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"petstore.yaml": petstore})

	out, err := run(context.Background(), t, "resolve", "petstore", "#/components/schemas/Pets", "--specs", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "array"}`, out)
	assert.Contains(t, out, "\n  \"type\"")
}

func TestResolveCommandErrors(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"petstore.yaml": petstore})

	_, err := run(context.Background(), t, "resolve", "petstore", "#/components/schemas/Nope",
		"--specs", dir, "--namespace", "path: /pets")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserror.ErrReference))
	assert.Contains(t, err.Error(), "petstore > path: /pets")

	_, err = run(context.Background(), t, "resolve", "petstore")
	assert.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specgraph.yaml")

	out, err := run(context.Background(), t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created: "+path)

	_, err = run(context.Background(), t, "config", "init", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(context.Background(), t, "config", "init", "--output", path, "--force")
	require.NoError(t, err)

	out, err = run(context.Background(), t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file is valid: "+path)

	out, err = run(context.Background(), t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file is valid: "+path)
}

func TestConfigValidateFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := run(context.Background(), t, "config", "validate", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("server:\n  port: 0\n"), 0o644))
	_, err = run(context.Background(), t, "config", "validate", invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestInvalidLogLevel(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"petstore.yaml": petstore})

	_, err := run(context.Background(), t, "--log-level", "loud", "validate", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServeCommand(t *testing.T) {
	specDir := writeSpecs(t, map[string]string{"petstore.yaml": petstore})

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Specs.Dir = specDir
	cfg.Logging.Output = "stderr"
	cfg.HotReload.Enabled = true
	cfg.HotReload.DebounceDelay = 50 * time.Millisecond
	configPath := filepath.Join(t.TempDir(), "specgraph.yaml")
	require.NoError(t, config.WriteToFile(cfg, configPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := run(ctx, t, "--config", configPath, "serve")
		errCh <- err
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/specs/petstore", cfg.Server.Port)
	require.Eventually(t, func() bool {
		status, _, err := fasthttp.GetTimeout(nil, url, time.Second)
		return err == nil && status == fasthttp.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeCommandLoadFailure(t *testing.T) {
	specDir := writeSpecs(t, map[string]string{"broken.yaml": brokenRef})

	_, err := run(context.Background(), t, "serve", specDir, "--port", fmt.Sprint(freePort(t)), "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load specs")
}
