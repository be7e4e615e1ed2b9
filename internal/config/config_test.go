package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGIN", "LLM_PROVIDER", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY",
		"ARK_MODEL", "Model", "ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS", "TAGGER",
		"SESSION_STORE", "SQLITE_PATH", "REDIS_DB", "SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_TABLE",
		"LOG_LEVEL", "LOG_FILE", "TRACE_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderMock {
		t.Fatalf("expected mock provider without credentials, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0 {
		t.Fatalf("expected temperature default 0")
	}
	if cfg.Tagging.Mode != TaggerStatic {
		t.Fatalf("expected static tagger, got %s", cfg.Tagging.Mode)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected sqlite store, got %s", cfg.Store.Driver)
	}
}

func TestLoadPicksArkWithCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "secret")
	t.Setenv("ARK_MODEL", "doubao-pro")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Provider != ProviderArk {
		t.Fatalf("expected ark provider, got %s", cfg.AI.Provider)
	}
}

func TestLoadArkWithoutCredentialsFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "ark")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when ark has no credentials")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"ARK_TEMPERATURE": "warm",
		"TAGGER":          "psychic",
		"SESSION_STORE":   "cassandra",
		"LLM_PROVIDER":    "carrier-pigeon",
		"REDIS_DB":        "zero",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoadServerAddrForms(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %s", cfg.Server.Addr)
	}
}

func TestLoadSupabaseStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_STORE", "supabase")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Store.SupabaseTable != "chat_sessions" {
		t.Fatalf("expected default table, got %s", cfg.Store.SupabaseTable)
	}

	t.Setenv("SUPABASE_TABLE", "companion_sessions")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Store.SupabaseTable != "companion_sessions" {
		t.Fatalf("expected overridden table, got %s", cfg.Store.SupabaseTable)
	}
}
