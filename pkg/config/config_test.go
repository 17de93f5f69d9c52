package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Name    string        `split_words:"true" required:"true"`
	Retries int           `split_words:"true" default:"5"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewReadsEnvFile(t *testing.T) {
	path := writeEnv(t, "CFGTEST_NAME=from-file\nCFGTEST_RETRIES=2\n")
	t.Setenv("CFGTEST_NAME", "")
	os.Unsetenv("CFGTEST_NAME")
	t.Setenv("CFGTEST_RETRIES", "")
	os.Unsetenv("CFGTEST_RETRIES")

	conf, err := New[sample]("CFGTEST", WithEnvFile(path))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "from-file" || conf.Retries != 2 {
		t.Fatalf("unexpected config: %+v", conf)
	}
	if conf.Timeout != 10*time.Second {
		t.Fatalf("Timeout = %v, want default 10s", conf.Timeout)
	}
}

func TestNewKeepsExistingEnvironment(t *testing.T) {
	path := writeEnv(t, "CFGKEEP_NAME=from-file\n")
	t.Setenv("CFGKEEP_NAME", "from-env")

	conf, err := New[sample]("CFGKEEP", WithEnvFile(path))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "from-env" {
		t.Fatalf("Name = %q, want from-env", conf.Name)
	}
}

func TestNewMissingExplicitFile(t *testing.T) {
	if _, err := New[sample]("CFGMISSING", WithEnvFile(filepath.Join(t.TempDir(), "nope.env"))); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestNewRequiredField(t *testing.T) {
	t.Setenv("CFGREQ_NAME", "")
	os.Unsetenv("CFGREQ_NAME")

	if _, err := New[sample]("CFGREQ", WithEnvFile(writeEnv(t, "CFGREQ_RETRIES=1\n"))); err == nil {
		t.Fatal("expected error for missing required field")
	}
}
