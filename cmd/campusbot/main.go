// Package main is the campusbot CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/chat"
	"github.com/hyperjump/campusbot/internal/cli"
	"github.com/hyperjump/campusbot/internal/config"
	"github.com/hyperjump/campusbot/internal/keyword"
	"github.com/hyperjump/campusbot/internal/llm"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
	"github.com/hyperjump/campusbot/internal/search"
	"github.com/hyperjump/campusbot/internal/server"
	"github.com/hyperjump/campusbot/internal/storage"
	"github.com/hyperjump/campusbot/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/campusbot/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). A missing default config
// falls back to built-in defaults plus environment; an explicit path must exist.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "classify":
		runClassify()
	case "feedback":
		runFeedback()
	case "status":
		runStatus()
	case "convert":
		runConvert()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("campusbot version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, retrieval, stream states)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Controller,
		components.Store,
		components.Index,
		components.QuestionLog(),
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so questions work the same
// with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = answer locally without a server)")
	stream := fs.Bool("stream", false, "print the answer as it is generated")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: campusbot ask [flags] <question>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		if *stream {
			messageID, err := streamViaHTTP(*serverURL, question, os.Stdout)
			fmt.Println()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
				os.Exit(1)
			}
			if messageID != "" {
				fmt.Printf("message:  %s\n", messageID)
			}
			return
		}
		resp, err := askViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Local mode: answer in-process with the configured generator.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if *stream {
		pr, pw := io.Pipe()
		go func() {
			components.Controller.Stream(ctx, question, chat.StreamOutput{
				W:         pw,
				MessageID: components.Controller.NewMessageID(),
			})
			_ = pw.Close()
		}()
		err := cli.ReadEventStream(pr, func(s string) { fmt.Print(s) })
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	res := components.Controller.Handle(ctx, question)
	resp := res.Response()
	if err := cli.WriteAnswer(os.Stdout, &resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if !res.Success {
		os.Exit(1)
	}
}

// apiError decodes an {"error": ...} body into an error.
func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func postJSON(url string, v interface{}) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// askViaHTTP posts question to the chat endpoint. The fallback answer of a failed generation
// arrives with status 500 and is returned as a normal response.
func askViaHTTP(serverURL, question string) (*models.ChatResponse, error) {
	resp, err := postJSON(serverURL+"/api/chat", models.NewChatRequest(question))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return nil, apiError(resp)
	}
	var out models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// streamViaHTTP posts question to the stream endpoint and copies fragments to w as they arrive.
// It returns the message ID announced by the server, if any.
func streamViaHTTP(serverURL, question string, w io.Writer) (string, error) {
	resp, err := postJSON(serverURL+"/api/chat/stream", models.NewChatRequest(question))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}
	messageID := resp.Header.Get("X-Message-ID")
	err = cli.ReadEventStream(resp.Body, func(s string) { _, _ = io.WriteString(w, s) })
	return messageID, err
}

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Println("Usage: campusbot classify [flags] <question>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cli.WriteClassification(os.Stdout, cli.Classify(question), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	comment := fs.String("comment", "", "optional comment")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 2 {
		fmt.Println("Usage: campusbot feedback [flags] <message-id> <positive|negative>")
		os.Exit(1)
	}
	resp, err := postJSON(*serverURL+"/api/feedback", models.FeedbackRequest{
		MessageID: fs.Arg(0),
		Feedback:  fs.Arg(1),
		Comment:   *comment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Feedback failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Feedback failed: %v\n", apiError(resp))
		os.Exit(1)
	}
	fmt.Printf("Feedback recorded for %s\n", fs.Arg(0))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read config and storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *server.Status
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		components, err := initializeComponents(context.Background(), cfg, zap.NewNop())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		status, err = server.CollectStatus(context.Background(), components.Store, components.Index,
			components.QuestionLog(), cfg, components.Generator.Name())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeStatusText(os.Stdout, status)
}

func writeStatusText(w io.Writer, status *server.Status) {
	for _, d := range models.Domains {
		fmt.Fprintf(w, "%-18s %d   # %s records\n", string(d)+":", status.Records[string(d)], d.Label())
	}
	fmt.Fprintf(w, "indexed_records:   %d   # records in the listing index\n", status.IndexedRecords)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# generator")
	fmt.Fprintf(w, "provider:          %s\n", status.LLM.Provider)
	fmt.Fprintf(w, "model:             %s\n", status.LLM.Model)
	fmt.Fprintf(w, "generator:         %s\n", status.LLM.Generator)
	if status.QuestionLog != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# question log")
		fmt.Fprintf(w, "questions:         %d\n", status.QuestionLog.Questions)
		fmt.Fprintf(w, "failed:            %d\n", status.QuestionLog.Failed)
		fmt.Fprintf(w, "positive_feedback: %d\n", status.QuestionLog.Positive)
		fmt.Fprintf(w, "negative_feedback: %d\n", status.QuestionLog.Negative)
	}
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:  %d   # question log database on disk\n", *status.DiskUsageBytes)
	}
}

func statusViaHTTP(serverURL string) (*server.Status, error) {
	resp, err := http.Get(serverURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var s server.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runConvert() {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 2 {
		fmt.Println("Usage: campusbot convert <input.yaml|input.xlsx> <output.yaml|output.xlsx>")
		os.Exit(1)
	}
	if err := convertDataset(fs.Arg(0), fs.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "Convert failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Converted %s -> %s\n", fs.Arg(0), fs.Arg(1))
}

// convertDataset validates the dataset at in and writes it to out. The output format follows
// out's extension.
func convertDataset(in, out string) error {
	store, err := reference.Load(in)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		if err := reference.WriteWorkbook(&buf, store.Dataset()); err != nil {
			return err
		}
	case ".yaml", ".yml":
		data, err := store.Dataset().Encode()
		if err != nil {
			return err
		}
		buf.Write(data)
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(out))
	}
	return os.WriteFile(out, buf.Bytes(), 0644)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])
	path := "config.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

// writeDefaultConfig writes a config with every default filled in and the question log enabled.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = "./questions.db"
	return config.Save(path, cfg)
}

// Components holds the long-lived pieces shared by the server and local commands.
type Components struct {
	Store      *reference.Store
	Index      *keyword.BleveIndex
	Questions  *storage.SQLiteStorage
	Generator  llm.Generator
	Controller *chat.Controller
}

// QuestionLog returns the question log, or a nil interface when it is disabled.
func (c *Components) QuestionLog() storage.QuestionLog {
	if c.Questions == nil {
		return nil
	}
	return c.Questions
}

func (c *Components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Questions != nil {
		_ = c.Questions.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	logger = utils.OrNop(logger)
	store, err := reference.Load(cfg.Reference.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	c := &Components{Store: store}

	c.Index, err = keyword.NewBleveIndex(store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize listing index: %w", err)
	}

	if cfg.Storage.DatabasePath != "" {
		c.Questions, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize question log: %w", err)
		}
	}

	c.Generator, err = llm.New(ctx, &cfg.LLM, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}
	records := 0
	for _, n := range store.Counts() {
		records += n
	}
	logger.Info("components initialized",
		zap.String("generator", c.Generator.Name()),
		zap.Int("reference_records", records),
		zap.Bool("question_log", c.Questions != nil))

	c.Controller = chat.NewController(
		search.NewRetriever(store, cfg.Search.DefaultLimit),
		c.Generator,
		c.QuestionLog(),
		logger,
		chat.Options{
			Timeout:       cfg.LLM.Timeout,
			StreamTimeout: cfg.LLM.StreamTimeout,
		},
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`campusbot - University student information chatbot

Usage:
  campusbot server [flags]                     Start the HTTP server
  campusbot ask [flags] <question>             Ask a question
  campusbot classify [flags] <question>        Show the keyword category scores for a question
  campusbot feedback [flags] <id> <rating>     Rate an answer (positive or negative)
  campusbot status [flags]                     Show reference data, generator and question log status
  campusbot convert <input> <output>           Convert reference data between YAML and xlsx
  campusbot init [--force] [path]              Write a default config file (default: ./config.yaml)
  campusbot version                            Show version
  campusbot help                               Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/campusbot/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to answer locally.
  --stream           Print the answer as it is generated
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    Output format: text or json (default: text)

Environment:
  GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY   Provider API keys (never read from the config file)
  LLM_PROVIDER, LLM_MODEL, LLM_BASE_URL               Override the llm section

Examples:
  campusbot server
  campusbot ask 수강신청은 언제 하나요?
  campusbot ask --stream "장학금 신청 방법 알려줘"
  campusbot ask --server "" --output json "휴학은 어떻게 해?"
  campusbot classify 졸업 학점이 궁금해요
  campusbot convert reference.xlsx reference.yaml
  campusbot status --output json`)
}
