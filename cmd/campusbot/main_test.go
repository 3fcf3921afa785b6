package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/campusbot/internal/config"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
	"github.com/hyperjump/campusbot/internal/server"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"수강신청 언제야", "-output", "json"},
			expected: []string{"-output", "json", "수강신청 언제야"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-stream", "수강신청 언제야"},
			expected: []string{"-stream", "수강신청 언제야"},
		},
		{
			name:     "question only returns unchanged",
			args:     []string{"수강신청 언제야"},
			expected: []string{"수강신청 언제야"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"휴학", "신청", "-server", ""},
			expected: []string{"-server", "", "휴학", "신청"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"수강신청"}, "수강신청"},
		{"multiple words", []string{"수강신청은", "언제", "하나요?"}, "수강신청은 언제 하나요?"},
		{"quoted phrase", []string{"수강신청은 언제 하나요?"}, "수강신청은 언제 하나요?"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuestion(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./questions.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultPathMissingUsesDefaults(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_PROVIDER", "offline")

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != defaultConfigPath {
		t.Errorf("resolved path = %s", resolved)
	}
	if cfg.Server.Port != 8080 || cfg.LLM.Provider != config.ProviderOffline {
		t.Errorf("unexpected config: server=%+v provider=%q", cfg.Server, cfg.LLM.Provider)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestInitializeComponents_offline(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.LLM.Provider = config.ProviderOffline
	cfg.Storage.DatabasePath = filepath.Join(dir, "questions.db")

	c, err := initializeComponents(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Generator.Name() != "offline" {
		t.Errorf("generator = %s", c.Generator.Name())
	}
	if c.QuestionLog() == nil {
		t.Error("question log should be enabled")
	}

	res := c.Controller.Handle(context.Background(), "수강신청은 언제 하나요?")
	if !res.Success || !strings.Contains(res.Answer, "수강신청") {
		t.Errorf("offline answer should echo the retrieved schedule: %+v", res)
	}
	if res.MessageID == "" {
		t.Error("message id should be assigned")
	}
}

func TestComponents_questionLogDisabled(t *testing.T) {
	c := &Components{}
	if c.QuestionLog() != nil {
		t.Error("disabled question log must be a nil interface")
	}
}

func TestConvertDataset(t *testing.T) {
	dir := t.TempDir()
	store, err := reference.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "reference.yaml")
	data, err := store.Dataset().Encode()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	xlsxPath := filepath.Join(dir, "reference.xlsx")
	if err := convertDataset(yamlPath, xlsxPath); err != nil {
		t.Fatalf("yaml -> xlsx: %v", err)
	}
	backPath := filepath.Join(dir, "back.yml")
	if err := convertDataset(xlsxPath, backPath); err != nil {
		t.Fatalf("xlsx -> yaml: %v", err)
	}
	back, err := reference.Load(backPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range models.Domains {
		if back.Count(d) != store.Count(d) {
			t.Errorf("%s: got %d records, want %d", d, back.Count(d), store.Count(d))
		}
	}

	if err := convertDataset(yamlPath, filepath.Join(dir, "out.csv")); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatal(err)
	}
	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("existing file should not be overwritten without force")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("force: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Storage.DatabasePath != filepath.Join(filepath.Dir(path), "questions.db") {
		t.Errorf("database_path = %q", cfg.Storage.DatabasePath)
	}
}

func TestAskViaHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch string(req.Candidate()) {
		case `"fail"`:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(models.ChatResponse{Answer: "죄송해요.", Sources: []models.Source{}, Category: "error"})
		case `"bad"`:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"질문을 입력해주세요."}`)
		default:
			_ = json.NewEncoder(w).Encode(models.ChatResponse{Answer: "ok", Category: "schedule"})
		}
	}))
	defer ts.Close()

	resp, err := askViaHTTP(ts.URL, "수강신청")
	if err != nil || resp.Answer != "ok" {
		t.Errorf("ok: %+v, %v", resp, err)
	}
	resp, err = askViaHTTP(ts.URL, "fail")
	if err != nil || resp.Category != "error" {
		t.Errorf("fallback should decode: %+v, %v", resp, err)
	}
	if _, err := askViaHTTP(ts.URL, "bad"); err == nil || !strings.Contains(err.Error(), "질문을 입력해주세요.") {
		t.Errorf("bad request error = %v", err)
	}
}

func TestStreamViaHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("X-Message-ID", "msg-1")
		fmt.Fprint(w, "data: {\"text\":\"수강신청은 \"}\n\ndata: {\"text\":\"2월입니다.\"}\n\ndata: [DONE]\n\n")
	}))
	defer ts.Close()

	var buf bytes.Buffer
	id, err := streamViaHTTP(ts.URL, "수강신청", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if id != "msg-1" || buf.String() != "수강신청은 2월입니다." {
		t.Errorf("id=%q text=%q", id, buf.String())
	}
}

func TestWriteStatusText(t *testing.T) {
	disk := int64(4096)
	status := &server.Status{
		Records:        map[string]int{"schedule": 10, "notice": 6, "program": 7, "glossary": 7},
		LLM:            server.LLMStatus{Provider: "gemini", Model: "gemini-2.0-flash-exp", Generator: "offline"},
		IndexedRecords: 30,
		QuestionLog:    &models.LogStats{Questions: 3, Failed: 1},
		DiskUsageBytes: &disk,
	}
	var buf bytes.Buffer
	writeStatusText(&buf, status)
	out := buf.String()
	for _, want := range []string{"schedule:", "indexed_records:   30", "generator:         offline", "questions:         3", "disk_usage_bytes:  4096"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}
