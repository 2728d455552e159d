package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/funvibe/mscript/internal/cache"
	"github.com/funvibe/mscript/internal/config"
)

const script = `enum Mode { Fast, Slow = 3 }

fn greet(name: string, times: int) {
	var i: int = 0;
	while (i < times) {
		print("hello " + name);
		i += 1;
	}
}

fn scale(x: float, up: bool, m: Mode) -> float {
	if (up && m == Mode.Slow) {
		return x * 2.0;
	}
	return x;
}
`

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.ms")
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-config", "c.yaml", "file.ms", "--cache", "db", "fn", "--", "-5"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.configPath != "c.yaml" || opts.cachePath != "db" {
		t.Errorf("unexpected flags: %+v", opts)
	}
	want := []string{"file.ms", "fn", "-5"}
	if len(opts.positional) != len(want) {
		t.Fatalf("expected %v, got %v", want, opts.positional)
	}
	for i := range want {
		if opts.positional[i] != want[i] {
			t.Errorf("positional[%d]: expected %q, got %q", i, want[i], opts.positional[i])
		}
	}

	if _, err := parseOptions([]string{"build", "-o"}); err == nil {
		t.Error("expected an error for a flag without value")
	}
}

func TestParseScriptArgs(t *testing.T) {
	sys, err := newHostSystem(config.Default(), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	prog, err := compileFile(sys, writeScript(t), config.CacheConfig{})
	if err != nil {
		t.Fatal(err)
	}

	args, err := parseScriptArgs(prog, "scale", []string{"1.5", "true", "Mode.Slow"})
	if err != nil {
		t.Fatal(err)
	}
	if args[0].AsFloat() != 1.5 || !args[1].AsBool() || args[2].AsInt() != 3 {
		t.Errorf("unexpected arguments %v", args)
	}
	if args, err = parseScriptArgs(prog, "scale", []string{"2", "false", "0"}); err != nil || args[2].AsInt() != 0 {
		t.Errorf("expected numeric enum member, got %v, %v", args, err)
	}

	bad := []struct {
		fn    string
		words []string
	}{
		{"missing", nil},
		{"greet", []string{"bob"}},
		{"greet", []string{"bob", "many"}},
		{"scale", []string{"x", "true", "Fast"}},
		{"scale", []string{"1", "yes please", "Fast"}},
		{"scale", []string{"1", "true", "Medium"}},
		{"scale", []string{"1", "true", "2"}},
	}
	for _, tt := range bad {
		if _, err := parseScriptArgs(prog, tt.fn, tt.words); err == nil {
			t.Errorf("%s %v: expected an error", tt.fn, tt.words)
		}
	}
}

func TestHostNatives(t *testing.T) {
	var out bytes.Buffer
	sys, err := newHostSystem(config.Default(), &out)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := compileFile(sys, writeScript(t), config.CacheConfig{})
	if err != nil {
		t.Fatal(err)
	}
	args, err := parseScriptArgs(prog, "greet", []string{"ann", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.NewVM(prog).Run(context.Background(), "greet", args...); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "hello ann\nhello ann\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCompileFileUsesCache(t *testing.T) {
	path := writeScript(t)
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	sys, err := newHostSystem(config.Default(), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}

	first, err := compileFile(sys, path, config.CacheConfig{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}

	c, err := cache.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(cache.Key("demo", script, hostPrototypes...))
	c.Close()
	if err != nil || !ok {
		t.Fatalf("expected a cached entry, got ok=%v err=%v", ok, err)
	}

	second, err := compileFile(sys, path, config.CacheConfig{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the cached program %s, got %s", first.ID, second.ID)
	}
}

func TestCompileFilePrunesExpiredEntries(t *testing.T) {
	path := writeScript(t)
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	sys, err := newHostSystem(config.Default(), &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	cc := config.CacheConfig{Path: dbPath, MaxAge: time.Hour}

	first, err := compileFile(sys, path, cc)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE programs SET created_at = 0`); err != nil {
		db.Close()
		t.Fatal(err)
	}
	db.Close()

	c, err := cache.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("other", "other", []byte("fresh")); err != nil {
		c.Close()
		t.Fatal(err)
	}
	c.Close()

	second, err := compileFile(sys, path, cc)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Errorf("expected the expired entry to be recompiled, got the cached program %s", first.ID)
	}

	c, err = cache.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok, err := c.Get("other"); err != nil || !ok {
		t.Errorf("expected the fresh entry to survive, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := c.Get(cache.Key("demo", script, hostPrototypes...)); err != nil || !ok {
		t.Errorf("expected the recompiled program to be stored again, got ok=%v err=%v", ok, err)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil || cfg.VM.MaxCallDepth != config.DefaultMaxCallDepth {
		t.Fatalf("unexpected default config %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "mscript.toml")
	if err := os.WriteFile(path, []byte("[vm]\nmax_instructions = 500\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VM.MaxInstructions != 500 || cfg.VM.MaxStackSize != config.DefaultMaxStackSize {
		t.Errorf("unexpected config %+v", cfg.VM)
	}
}
