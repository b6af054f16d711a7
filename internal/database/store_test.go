package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	pkgdatabase "classboard/pkg/database"
	"classboard/pkg/interfaces"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := pkgdatabase.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "store_test.db")

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveMessageAssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	msg, err := store.SaveMessage(context.Background(), 3, 10, "hello")
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if msg.ID == 0 {
		t.Error("message id not assigned")
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
	if msg.IsRead {
		t.Error("new message must start unread")
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SaveQuestion(context.Background(), 5, 1, "what is WAL mode?")
	if err != nil {
		t.Fatalf("SaveQuestion failed: %v", err)
	}

	got, err := store.GetQuestion(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.Content != saved.Content || got.ClassID != 5 || got.StudentID != 1 {
		t.Errorf("round trip mismatch: %+v vs %+v", got, saved)
	}
}

func TestGetQuestionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetQuestion(context.Background(), 12345)
	if !errors.Is(err, interfaces.ErrQuestionNotFound) {
		t.Fatalf("got %v, want ErrQuestionNotFound", err)
	}
}

func TestGetClassQuestionsOrderedAndScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.SaveQuestion(ctx, 5, 1, fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("SaveQuestion failed: %v", err)
		}
	}
	if _, err := store.SaveQuestion(ctx, 7, 2, "other class"); err != nil {
		t.Fatalf("SaveQuestion failed: %v", err)
	}

	questions, err := store.GetClassQuestions(ctx, 5, 100)
	if err != nil {
		t.Fatalf("GetClassQuestions failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	for i, q := range questions {
		if q.Content != fmt.Sprintf("question %d", i) {
			t.Errorf("position %d holds %q, want oldest first", i, q.Content)
		}
		if q.ClassID != 5 {
			t.Errorf("question from class %d leaked into class 5 history", q.ClassID)
		}
	}
}

func TestGetQuestionAnswers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.SaveQuestion(ctx, 5, 1, "how do I test this?")
	if err != nil {
		t.Fatalf("SaveQuestion failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := store.SaveAnswer(ctx, q.ID, 2, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}
	}

	answers, err := store.GetQuestionAnswers(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuestionAnswers failed: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("got %d answers, want 2", len(answers))
	}
	if answers[0].Content != "answer 0" || answers[1].Content != "answer 1" {
		t.Error("answers not in oldest-first order")
	}
}

func TestGetConversationCoversBothDirections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveMessage(ctx, 3, 10, "ping"); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if _, err := store.SaveMessage(ctx, 10, 3, "pong"); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if _, err := store.SaveMessage(ctx, 3, 99, "unrelated"); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	messages, err := store.GetConversation(ctx, 3, 10, 100)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Content != "ping" || messages[1].Content != "pong" {
		t.Error("conversation not in oldest-first order")
	}
}

func TestConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			if _, err := store.SaveQuestion(ctx, 5, n, "concurrent"); err != nil {
				errCh <- err
			}
		}(int64(i + 1))
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent write failed: %v", err)
	}

	questions, err := store.GetClassQuestions(ctx, 5, 100)
	if err != nil {
		t.Fatalf("GetClassQuestions failed: %v", err)
	}
	if len(questions) != 20 {
		t.Errorf("got %d questions, want 20", len(questions))
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestCloseIsIdempotentAndRejectsWrites(t *testing.T) {
	store := newTestStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	_, err := store.SaveMessage(context.Background(), 1, 2, "too late")
	if !errors.Is(err, interfaces.ErrStoreClosed) {
		t.Fatalf("got %v, want ErrStoreClosed", err)
	}
}
