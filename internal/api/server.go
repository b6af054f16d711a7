package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"classboard/internal/auth"
	"classboard/internal/router"
	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// QAService creates questions and answers and pushes them to the class
// channel. Implemented by the message router.
type QAService interface {
	CreateQuestion(ctx context.Context, classID, authorID int64, content string) (*types.Question, error)
	CreateAnswer(ctx context.Context, questionID, authorID int64, content string) (*types.Answer, error)
}

// StatsSource exposes registry counts without coupling to its type.
type StatsSource interface {
	Stats() map[string]int
}

// TokenVerifier validates bearer tokens on authenticated endpoints.
type TokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
}

// Server is the HTTP surface around the realtime core: health, the Q&A
// create endpoints (which persist and broadcast, mirroring the socket
// frames), and the history queries that make persisted data reachable
// after a missed live push.
type Server struct {
	store  interfaces.MessageStore
	qa     QAService
	stats  StatsSource
	tokens TokenVerifier
	router *http.ServeMux
}

// NewServer creates the API server and registers its routes.
func NewServer(store interfaces.MessageStore, qa QAService, stats StatsSource, tokens TokenVerifier) *Server {
	s := &Server{
		store:  store,
		qa:     qa,
		stats:  stats,
		tokens: tokens,
		router: http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Handle("/api/questions", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleCreateQuestion))))
	s.router.Handle("/api/questions/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleQuestionAnswers))))
	s.router.Handle("/api/answers", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleCreateAnswer))))
	s.router.Handle("/api/classes/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleClassQuestions))))
	s.router.Handle("/api/chat/", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleConversation))))
	s.router.Handle("/api/stats", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.handleStats))))
	s.router.Handle("/health", s.corsMiddleware(s.jsonMiddleware(http.HandlerFunc(s.healthCheck))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createQuestionRequest struct {
	ClassID int64  `json:"class_id"`
	Content string `json:"content"`
}

type createAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Content    string `json:"content"`
}

// POST /api/questions
func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClassID <= 0 || strings.TrimSpace(req.Content) == "" {
		s.sendError(w, "class_id and content are required", http.StatusBadRequest)
		return
	}

	question, err := s.qa.CreateQuestion(r.Context(), req.ClassID, claims.UserID, req.Content)
	if err != nil {
		log.Printf("create question failed: %v", err)
		s.sendError(w, "Failed to create question", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, question, http.StatusCreated)
}

// POST /api/answers
func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.QuestionID <= 0 || strings.TrimSpace(req.Content) == "" {
		s.sendError(w, "question_id and content are required", http.StatusBadRequest)
		return
	}

	answer, err := s.qa.CreateAnswer(r.Context(), req.QuestionID, claims.UserID, req.Content)
	if err != nil {
		if errors.Is(err, router.ErrUnknownQuestion) {
			s.sendError(w, "Question not found", http.StatusNotFound)
			return
		}
		log.Printf("create answer failed: %v", err)
		s.sendError(w, "Failed to create answer", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, answer, http.StatusCreated)
}

// GET /api/classes/{id}/questions
func (s *Server) handleClassQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	classID, ok := s.pathID(w, r.URL.Path, "/api/classes/", "questions")
	if !ok {
		return
	}

	questions, err := s.store.GetClassQuestions(r.Context(), classID, s.limit(r))
	if err != nil {
		log.Printf("list questions failed: %v", err)
		s.sendError(w, "Failed to list questions", http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []*types.Question{}
	}

	s.sendJSON(w, map[string]interface{}{"questions": questions}, http.StatusOK)
}

// GET /api/questions/{id}/answers
func (s *Server) handleQuestionAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	questionID, ok := s.pathID(w, r.URL.Path, "/api/questions/", "answers")
	if !ok {
		return
	}

	answers, err := s.store.GetQuestionAnswers(r.Context(), questionID)
	if err != nil {
		log.Printf("list answers failed: %v", err)
		s.sendError(w, "Failed to list answers", http.StatusInternalServerError)
		return
	}
	if answers == nil {
		answers = []*types.Answer{}
	}

	s.sendJSON(w, map[string]interface{}{"answers": answers}, http.StatusOK)
}

// GET /api/chat/{user_id}/messages — history between the authenticated
// caller and the named user.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	otherID, ok := s.pathID(w, r.URL.Path, "/api/chat/", "messages")
	if !ok {
		return
	}

	messages, err := s.store.GetConversation(r.Context(), claims.UserID, otherID, s.limit(r))
	if err != nil {
		log.Printf("conversation query failed: %v", err)
		s.sendError(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*types.Message{}
	}

	s.sendJSON(w, map[string]interface{}{"messages": messages}, http.StatusOK)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.sendJSON(w, s.stats.Stats(), http.StatusOK)
}

// GET /health
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.sendJSON(w, map[string]string{"status": "unhealthy", "error": err.Error()}, http.StatusServiceUnavailable)
		return
	}

	s.sendJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// authenticate resolves the Authorization bearer token.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		s.sendError(w, "Missing bearer token", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		s.sendError(w, "Invalid token", http.StatusUnauthorized)
		return nil, false
	}

	return claims, true
}

// pathID extracts the numeric id from paths like /api/classes/{id}/questions.
func (s *Server) pathID(w http.ResponseWriter, path, prefix, suffix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != suffix {
		s.sendError(w, "Not found", http.StatusNotFound)
		return 0, false
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		s.sendError(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func (s *Server) limit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return 100
}

func (s *Server) sendJSON(w http.ResponseWriter, data interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, map[string]string{"error": message}, status)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
