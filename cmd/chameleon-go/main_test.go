package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() unexpected error: %v", err)
		}
	}
	return dir
}

func TestRender(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.pt":       `<p tal:content="name">x</p>`,
		"hello.pt":      `<p i18n:translate="">Hello</p>`,
		"lang.pt":       `<p>${target_language}</p>`,
		"bindings.json": `{"name": "Ann"}`,
		"de.po":         "msgid \"Hello\"\nmsgstr \"Hallo\"\n",
		"settings.json": `{"targetLanguage": "de", "domain": "site"}`,
	})

	t.Run("should render with bindings", func(t *testing.T) {
		var sb strings.Builder
		err := render([]string{filepath.Join(dir, "page.pt"), filepath.Join(dir, "bindings.json")}, &sb)
		if err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff("<p>Ann</p>\n", sb.String()); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should translate with a PO file", func(t *testing.T) {
		var sb strings.Builder
		args := []string{"-lang", "de", "-domain", "site", "-po", filepath.Join(dir, "de.po"), filepath.Join(dir, "hello.pt")}
		if err := render(args, &sb); err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff("<p>Hallo</p>\n", sb.String()); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should read settings from a config file", func(t *testing.T) {
		var sb strings.Builder
		args := []string{"-config", filepath.Join(dir, "settings.json"), "-po", filepath.Join(dir, "de.po"), filepath.Join(dir, "hello.pt")}
		if err := render(args, &sb); err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff("<p>Hallo</p>\n", sb.String()); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should let flags override the config file", func(t *testing.T) {
		var sb strings.Builder
		args := []string{"-config", filepath.Join(dir, "settings.json"), "-lang", "fr", filepath.Join(dir, "lang.pt")}
		if err := render(args, &sb); err != nil {
			t.Fatalf("render() unexpected error: %v", err)
		}
		if diff := cmp.Diff("<p>fr</p>\n", sb.String()); diff != "" {
			t.Errorf("render() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should reject missing arguments", func(t *testing.T) {
		if err := render(nil, &strings.Builder{}); err == nil {
			t.Errorf("render() expected an error")
		}
	})
}

func TestMacros(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"page.pt": `<a metal:define-macro="first" /><b metal:define-macro="second" />`,
	})
	var sb strings.Builder
	if err := macros(filepath.Join(dir, "page.pt"), &sb); err != nil {
		t.Fatalf("macros() unexpected error: %v", err)
	}
	if diff := cmp.Diff("first\nsecond\n", sb.String()); diff != "" {
		t.Errorf("macros() mismatch (-want +got):\n%s", diff)
	}
}

func TestTokens(t *testing.T) {
	dir := writeFiles(t, map[string]string{"page.pt": "<p>hi</p>"})
	var sb strings.Builder
	if err := tokens(filepath.Join(dir, "page.pt"), &sb); err != nil {
		t.Fatalf("tokens() unexpected error: %v", err)
	}
	expected := "1:1\tstart_tag\t\"<p>\"\n1:4\ttext\t\"hi\"\n1:6\tend_tag\t\"</p>\"\n"
	if diff := cmp.Diff(expected, sb.String()); diff != "" {
		t.Errorf("tokens() mismatch (-want +got):\n%s", diff)
	}
}
