// Package chat answers student questions: it classifies, retrieves context, prompts the generator
// and relays the answer either whole or as an event stream.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/classifier"
	"github.com/hyperjump/campusbot/internal/llm"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/prompt"
	"github.com/hyperjump/campusbot/internal/search"
	"github.com/hyperjump/campusbot/internal/storage"
	"github.com/hyperjump/campusbot/pkg/utils"
)

// Options tune the controller. Zero values disable the corresponding bound.
type Options struct {
	// Timeout bounds a synchronous generation.
	Timeout time.Duration
	// StreamTimeout bounds a whole stream.
	StreamTimeout time.Duration
	// RetrieveLimit caps retrieved snippets; zero uses the retriever's default.
	RetrieveLimit int
}

// Controller handles chat questions. It is safe for concurrent use.
type Controller struct {
	retriever *search.Retriever
	generator llm.Generator
	questions storage.QuestionLog
	logger    *zap.Logger
	opts      Options
}

// NewController creates a controller. questions may be nil to disable the question log.
func NewController(retriever *search.Retriever, generator llm.Generator, questions storage.QuestionLog,
	logger *zap.Logger, opts Options) *Controller {
	return &Controller{
		retriever: retriever,
		generator: generator,
		questions: questions,
		logger:    utils.OrNop(logger),
		opts:      opts,
	}
}

// Result is the outcome of a synchronous question. On failure Success is false, Err holds the
// cause and Answer holds the fallback apology. Err is an *InvalidInputError when the question
// itself was rejected; Answer is empty in that case.
type Result struct {
	Answer    string
	Sources   []models.Source
	Category  models.Category
	Success   bool
	Err       error
	MessageID string
}

// Response converts r to the wire shape.
func (r Result) Response() models.ChatResponse {
	sources := r.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	return models.ChatResponse{
		Answer:    r.Answer,
		Sources:   sources,
		Category:  string(r.Category),
		MessageID: r.MessageID,
	}
}

// HandleRequest validates req and answers it.
func (c *Controller) HandleRequest(ctx context.Context, req models.ChatRequest) Result {
	question, err := ValidateQuestion(req)
	if err != nil {
		return Result{Err: err}
	}
	return c.Handle(ctx, question)
}

// Handle answers question. Failures never propagate: they are logged and turned into the
// fallback result.
func (c *Controller) Handle(ctx context.Context, question string) Result {
	question, err := normalizeQuestion(question)
	if err != nil {
		return Result{Err: err}
	}
	start := time.Now()
	res := c.answer(ctx, question)
	res.MessageID = c.record(ctx, &models.QuestionLog{
		Question:  question,
		Answer:    res.Answer,
		Category:  res.Category,
		Status:    status(res.Success),
		Sources:   sourceNames(res.Sources),
		LatencyMS: time.Since(start).Milliseconds(),
	})
	return res
}

func (c *Controller) answer(ctx context.Context, question string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = c.fallback(question, fmt.Errorf("panic while answering: %v", r))
		}
	}()

	category, snippets := c.prepare(question)
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	answer, err := c.generator.Generate(ctx, prompt.Build(question, snippets))
	if err == nil && strings.TrimSpace(answer) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		return c.fallback(question, llm.ClassifyError(c.generator.Name(), err))
	}

	sources := search.Sources(snippets)
	c.checkAnswer(question, answer, sources)
	return Result{Answer: answer, Sources: sources, Category: category, Success: true}
}

// prepare classifies the question and retrieves its context.
func (c *Controller) prepare(question string) (models.Category, []search.Snippet) {
	category := classifier.Classify(question)
	snippets := c.retriever.Retrieve(question, category, c.opts.RetrieveLimit)
	c.logger.Debug("question prepared",
		zap.String("question", utils.Truncate(question, 80)),
		zap.String("category", string(category)),
		zap.Int("snippets", len(snippets)))
	return category, snippets
}

func (c *Controller) fallback(question string, err error) Result {
	fields := []zap.Field{zap.String("question", utils.Truncate(question, 80)), zap.Error(err)}
	if kind := llm.KindOf(err); kind != "" {
		fields = append(fields, zap.String("kind", string(kind)))
	}
	c.logger.Error("answer generation failed", fields...)
	return Result{
		Answer:   FallbackAnswer,
		Sources:  []models.Source{},
		Category: models.CategoryError,
		Err:      err,
	}
}

func (c *Controller) checkAnswer(question, answer string, sources []models.Source) {
	for _, warning := range CheckAnswer(answer, sources) {
		c.logger.Warn("answer check",
			zap.String("warning", warning),
			zap.String("question", utils.Truncate(question, 80)))
	}
}

// StreamOutput is where a streamed answer is written.
type StreamOutput struct {
	W io.Writer
	// Flush pushes buffered frames to the client; nil when w is unbuffered.
	Flush func() error
	// MessageID is the pre-assigned question log ID, from NewMessageID.
	MessageID string
}

// StreamResult summarizes a streamed answer.
type StreamResult struct {
	State     RelayState
	Category  models.Category
	Sources   []models.Source
	Fragments int
	Canceled  bool
	Err       error
	MessageID string
}

// NewMessageID returns an ID for a streamed answer's log entry, or "" when the log is disabled.
// Streams announce the ID before the answer exists, so it is assigned up front.
func (c *Controller) NewMessageID() string {
	if c.questions == nil {
		return ""
	}
	return uuid.NewString()
}

// Stream answers an already validated question as an event stream written to out.
// Preparation failures and generator failures produce the terminal error frame.
func (c *Controller) Stream(ctx context.Context, question string, out StreamOutput) (res StreamResult) {
	start := time.Now()
	relay := NewRelay(out.W, out.Flush, c.opts.StreamTimeout)
	res.Category = models.CategoryError
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while streaming: %v", r)
			switch relay.State() {
			case StateIdle:
				_ = relay.Run(ctx, func(context.Context) (llm.Stream, error) { return nil, res.Err })
			case StateStreaming:
				_ = relay.fail(ctx, res.Err)
			}
		}
		res.State = relay.State()
		res.Fragments = relay.Fragments()
		res.Canceled = relay.Canceled()
		c.logStream(question, res, time.Since(start))
		entry := &models.QuestionLog{
			ID:        out.MessageID,
			Question:  question,
			Answer:    relay.Text(),
			Category:  res.Category,
			Status:    status(res.State == StateCompleted),
			Sources:   sourceNames(res.Sources),
			Streamed:  true,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		res.MessageID = c.record(ctx, entry)
	}()

	category, snippets := c.prepare(question)
	res.Category = category
	res.Sources = search.Sources(snippets)
	p := prompt.Build(question, snippets)
	provider := c.generator.Name()
	res.Err = relay.Run(ctx, func(ctx context.Context) (llm.Stream, error) {
		stream, err := c.generator.Stream(ctx, p)
		if err != nil {
			return nil, llm.ClassifyError(provider, err)
		}
		return classifiedStream{Stream: stream, provider: provider}, nil
	})
	if relay.State() == StateCompleted {
		c.checkAnswer(question, relay.Text(), res.Sources)
	}
	return res
}

// classifiedStream tags mid-stream failures with their kind for logging.
type classifiedStream struct {
	llm.Stream
	provider string
}

func (s classifiedStream) Recv() (string, error) {
	text, err := s.Stream.Recv()
	if err != nil && !errors.Is(err, io.EOF) {
		return text, llm.ClassifyError(s.provider, err)
	}
	return text, err
}

func (c *Controller) logStream(question string, res StreamResult, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("question", utils.Truncate(question, 80)),
		zap.String("state", res.State.String()),
		zap.Int("fragments", res.Fragments),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case res.Canceled:
		c.logger.Info("stream canceled by client", fields...)
	case res.Err != nil:
		fields = append(fields, zap.Error(res.Err))
		if kind := llm.KindOf(res.Err); kind != "" {
			fields = append(fields, zap.String("kind", string(kind)))
		}
		c.logger.Error("stream failed", fields...)
	default:
		c.logger.Debug("stream completed", fields...)
	}
}

// record writes entry to the question log and returns its ID. Failures are logged only.
func (c *Controller) record(ctx context.Context, entry *models.QuestionLog) string {
	if c.questions == nil {
		return ""
	}
	if err := c.questions.RecordQuestion(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Warn("failed to record question", zap.Error(err))
		return ""
	}
	return entry.ID
}

func status(ok bool) models.QuestionStatus {
	if ok {
		return models.StatusCompleted
	}
	return models.StatusFailed
}

func sourceNames(sources []models.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names
}

// GeneratorName identifies the generator answering questions.
func (c *Controller) GeneratorName() string {
	return c.generator.Name()
}
