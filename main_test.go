package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesPDFAndDebug(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "demo.pdf")
	dbg := filepath.Join(dir, "out", "layout.json")
	err := run(options{
		input:    filepath.Join("examples", "demo.book"),
		output:   out,
		debug:    dbg,
		data:     map[string]any{"user": map[string]any{"name": "Ada"}},
		logLevel: "error",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	pdf, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected PDF output: %v", err)
	}
	js, err := os.ReadFile(dbg)
	if err != nil {
		t.Fatalf("read debug: %v", err)
	}
	if !strings.Contains(string(js), "Ada") {
		t.Fatalf("debug JSON should contain interpolated text")
	}
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	if err := run(options{input: filepath.Join("examples", "demo.book"), logLevel: "loud"}); err == nil {
		t.Fatalf("expected log level error")
	}
}

func TestLoadData(t *testing.T) {
	data, err := loadData(`{"a":1}`, "")
	if err != nil || data.(map[string]any)["a"] != 1.0 {
		t.Fatalf("inline JSON: %v %v", data, err)
	}
	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("user:\n  name: Ada\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err = loadData("", path)
	if err != nil || data.(map[string]any)["user"].(map[string]any)["name"] != "Ada" {
		t.Fatalf("yaml file: %v %v", data, err)
	}
	if _, err := loadData("{}", path); err == nil {
		t.Fatalf("both sources should be rejected")
	}
}
