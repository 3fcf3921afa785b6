package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/campusbot/internal/chat"
	"github.com/hyperjump/campusbot/internal/models"
	"github.com/hyperjump/campusbot/internal/reference"
	"github.com/hyperjump/campusbot/internal/storage"
	"github.com/hyperjump/campusbot/pkg/utils"
)

// maxBodyBytes caps request bodies; questions are at most 1000 runes.
const maxBodyBytes = 64 << 10

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, chat.MsgEmptyQuestion)
		return "", false
	}
	question, err := chat.ValidateQuestion(req)
	if err != nil {
		var invalid *chat.InvalidInputError
		if errors.As(err, &invalid) {
			s.respondError(w, http.StatusBadRequest, invalid.Message)
		} else {
			s.respondError(w, http.StatusBadRequest, chat.MsgEmptyQuestion)
		}
		return "", false
	}
	return question, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	question, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	s.logger.Debug("chat request", zap.String("question", utils.Truncate(question, 80)))
	res := s.chat.Handle(r.Context(), question)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	s.respondJSON(w, status, res.Response())
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	question, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}
	messageID := s.chat.NewMessageID()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	if messageID != "" {
		h.Set("X-Message-ID", messageID)
	}
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	res := s.chat.Stream(r.Context(), question, chat.StreamOutput{
		W:         w,
		Flush:     rc.Flush,
		MessageID: messageID,
	})
	s.logger.Debug("chat stream finished",
		zap.String("state", res.State.String()),
		zap.Int("fragments", res.Fragments),
		zap.Bool("canceled", res.Canceled))
}

type usageResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Example   map[string]string `json:"example"`
}

func (s *Server) handleChatUsage(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, usageResponse{
		Message: "POST 요청으로 질문을 보내주세요.",
		Endpoints: map[string]string{
			"POST /api/chat":        "질문에 대한 답변을 한 번에 반환합니다.",
			"POST /api/chat/stream": "답변을 text/event-stream으로 전송합니다.",
			"POST /api/feedback":    "답변에 대한 피드백을 남깁니다.",
		},
		Example: map[string]string{"message": "수강신청 언제야?"},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	domain, ok := models.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	params := r.URL.Query()
	q := models.ListQuery{
		Domain:  domain,
		Filters: map[string]string{},
		Q:       strings.TrimSpace(params.Get("q")),
	}
	var err error
	if q.Limit, err = intParam(params.Get("limit")); err != nil {
		s.respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if q.Offset, err = intParam(params.Get("offset")); err != nil {
		s.respondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}
	for _, key := range reference.FilterKeys[domain] {
		if v := strings.TrimSpace(params.Get(key)); v != "" {
			q.Filters[key] = v
		}
	}
	search := s.config.Search
	if err := q.Validate(search.ListDefaultLimit, search.ListMaxLimit); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	allow, err := s.index.Search(r.Context(), domain, q.Q)
	if err != nil {
		s.logger.Error("listing search failed", zap.String("domain", string(domain)), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, s.store.List(q, allow))
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	domain, ok := models.ParseDomain(chi.URLParam(r, "domain"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	rec, ok := s.store.Get(domain, id)
	if !ok {
		s.respondError(w, http.StatusNotFound, domain.Label()+" 항목을 찾을 수 없습니다.")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.questions == nil {
		s.respondError(w, http.StatusNotImplemented, "question log not enabled")
		return
	}
	var req models.FeedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.MessageID = strings.TrimSpace(req.MessageID)
	if req.MessageID == "" {
		s.respondError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if req.Feedback != models.FeedbackPositive && req.Feedback != models.FeedbackNegative {
		s.respondError(w, http.StatusBadRequest, "feedback must be positive or negative")
		return
	}
	err := s.questions.SetFeedback(r.Context(), req.MessageID, req.Feedback, strings.TrimSpace(req.Comment))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "message not found")
		return
	}
	if err != nil {
		s.logger.Error("feedback failed", zap.String("message_id", req.MessageID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "feedback failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message_id": req.MessageID, "status": "recorded"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := CollectStatus(r.Context(), s.store, s.index, s.questions, s.config, s.chat.GeneratorName())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
