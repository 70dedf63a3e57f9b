package secret_test

import (
	"testing"

	"sitecms/internal/secret"
)

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := secret.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if v, err := s.Get("missing"); err != nil || v != nil {
		t.Fatalf("missing key: got %q, %v", v, err)
	}
	if err := s.Set("db_password", []byte("pw")); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("db_password")
	if err != nil || string(v) != "pw" {
		t.Fatalf("got %q, %v", v, err)
	}
	if err := s.Delete("db_password"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("../escape", []byte("x")); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestChain_EnvOverridesFile(t *testing.T) {
	t.Setenv("SITECMS_SECRET_DB_PASSWORD", "from-env")
	files, err := secret.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = files.Set(secret.KeyDBPassword, []byte("from-file"))

	chain := secret.Chain{secret.NewEnvStore("SITECMS_SECRET_"), files}
	v, err := chain.Get(secret.KeyDBPassword)
	if err != nil || string(v) != "from-env" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestEnsureRandom_GeneratesOnce(t *testing.T) {
	files, err := secret.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	chain := secret.Chain{secret.NewEnvStore("SITECMS_SECRET_TEST_"), files}

	first, err := secret.EnsureRandom(chain, secret.KeySigningKey, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(first))
	}
	second, err := secret.EnsureRandom(chain, secret.KeySigningKey, 32)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatal("expected the stored key to be reused")
	}
}
