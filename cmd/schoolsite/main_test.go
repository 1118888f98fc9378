package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huongkhe/schoolsite/internal/auth"
)

const testSecret = "test-session-secret-at-least-32-bytes"

// writeConfig writes a minimal development config into a fresh working
// directory and returns its path.
func writeConfig(t *testing.T, port int) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	content := fmt.Sprintf(`
environment: development

server:
  host: "127.0.0.1"
  port: %d

database:
  path: %q
  wal_mode: true
  busy_timeout: 5

logging:
  level: error
  format: text
  output: stderr

security:
  session:
    secret: %q
    ttl: 2h
  admin:
    username: principal
    password: "Sup3rSecret1"
`, port, filepath.Join(dir, "school.db"), testSecret)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("SCHOOLSITE_CONFIG", "")
	if got := resolveConfigPath(""); got != "" {
		t.Errorf("no flag, env or default file: got %q, want empty", got)
	}

	if err := os.MkdirAll("configs", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(defaultConfigPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := resolveConfigPath(""); got != defaultConfigPath {
		t.Errorf("default file present: got %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("SCHOOLSITE_CONFIG", "/etc/schoolsite/config.yaml")
	if got := resolveConfigPath(""); got != "/etc/schoolsite/config.yaml" {
		t.Errorf("env override: got %q", got)
	}

	if got := resolveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("flag override: got %q", got)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	path := writeConfig(t, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, path) }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/health", port)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("health status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not come up: %v", err)
		}
		select {
		case err := <-done:
			t.Fatalf("run() exited early: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestMigrateCommands(t *testing.T) {
	path := writeConfig(t, 5000)

	out, err := execute(t, "", "--config", path, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("fresh database status:\n%s", out)
	}

	if _, err := execute(t, "", "--config", path, "migrate", "up"); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	out, err = execute(t, "", "--config", path, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status: %v", err)
	}
	if strings.Contains(out, "pending") || !strings.Contains(out, "applied") {
		t.Errorf("status after up:\n%s", out)
	}

	if _, err := execute(t, "", "--config", path, "migrate", "down"); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	out, _ = execute(t, "", "--config", path, "migrate", "status")
	if !strings.Contains(out, "pending") {
		t.Errorf("status after down:\n%s", out)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "", "hash-password", "Str0ngPassword")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash = %q", hash)
	}
	ok, err := auth.VerifyPassword("Str0ngPassword", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword = %v, %v", ok, err)
	}

	out, err = execute(t, "FromStdin9\n", "hash-password")
	if err != nil {
		t.Fatalf("hash-password from stdin: %v", err)
	}
	if ok, _ := auth.VerifyPassword("FromStdin9", strings.TrimSpace(out)); !ok {
		t.Error("stdin password does not verify")
	}

	if _, err := execute(t, "", "hash-password", "weak"); err == nil {
		t.Error("weak password accepted")
	}
	if _, err := execute(t, "", "hash-password", "--no-check", "weak"); err != nil {
		t.Errorf("--no-check: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "schoolsite "+version) {
		t.Errorf("version output = %q", out)
	}
}
