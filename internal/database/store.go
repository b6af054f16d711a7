package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	pkgdatabase "classboard/pkg/database"
	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// Store implements interfaces.MessageStore on SQLite. Writes are
// serialized through a single goroutine, which SQLite rewards; reads go
// straight to the pool and run concurrently.
type Store struct {
	db       *sql.DB
	writeCh  chan writeOperation
	shutdown chan struct{}
	wg       sync.WaitGroup
	closed   bool
	mu       sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewStore opens the database, bootstraps the schema and starts the
// writer goroutine.
func NewStore(cfg *pkgdatabase.Config) (*Store, error) {
	db, err := pkgdatabase.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pkgdatabase.Bootstrap(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		writeCh:  make(chan writeOperation, 100),
		shutdown: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeCh:
			err := op.operation(s.db)
			if err != nil {
				log.Printf("database write failed, retrying: %v", err)
				time.Sleep(time.Second)
				err = op.operation(s.db)
			}
			op.result <- err

		case <-s.shutdown:
			return
		}
	}
}

func (s *Store) executeWrite(operation func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return interfaces.ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case s.writeCh <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return fmt.Errorf("write operation timeout")
	case <-s.shutdown:
		return interfaces.ErrStoreClosed
	}
}

// SaveMessage persists a direct-chat message with a server-assigned id
// and timestamp.
func (s *Store) SaveMessage(ctx context.Context, senderID, receiverID int64, content string) (*types.Message, error) {
	msg := &types.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}

	err := s.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO messages (sender_id, receiver_id, content, timestamp, is_read)
			 VALUES (?, ?, ?, ?, 0)`,
			msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		msg.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// SaveQuestion persists a class question.
func (s *Store) SaveQuestion(ctx context.Context, classID, studentID int64, content string) (*types.Question, error) {
	question := &types.Question{
		Content:   content,
		ClassID:   classID,
		StudentID: studentID,
		Timestamp: time.Now().UTC(),
	}

	err := s.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO questions (content, class_id, student_id, timestamp)
			 VALUES (?, ?, ?, ?)`,
			question.Content, question.ClassID, question.StudentID, question.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
		question.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return question, nil
}

// SaveAnswer persists an answer to an existing question.
func (s *Store) SaveAnswer(ctx context.Context, questionID, teacherID int64, content string) (*types.Answer, error) {
	answer := &types.Answer{
		Content:    content,
		QuestionID: questionID,
		TeacherID:  teacherID,
		Timestamp:  time.Now().UTC(),
	}

	err := s.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			`INSERT INTO answers (content, question_id, teacher_id, timestamp)
			 VALUES (?, ?, ?, ?)`,
			answer.Content, answer.QuestionID, answer.TeacherID, answer.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
		answer.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return answer, nil
}

// GetQuestion retrieves one question by id.
func (s *Store) GetQuestion(ctx context.Context, questionID int64) (*types.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, class_id, student_id, timestamp
		 FROM questions WHERE id = ?`, questionID,
	)

	var q types.Question
	err := row.Scan(&q.ID, &q.Content, &q.ClassID, &q.StudentID, &q.Timestamp)
	if err == sql.ErrNoRows {
		return nil, interfaces.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query question: %w", err)
	}

	return &q, nil
}

// GetClassQuestions returns a class's questions oldest first.
func (s *Store) GetClassQuestions(ctx context.Context, classID int64, limit int) ([]*types.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, class_id, student_id, timestamp
		 FROM questions WHERE class_id = ?
		 ORDER BY timestamp ASC, id ASC LIMIT ?`,
		classID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*types.Question
	for rows.Next() {
		var q types.Question
		if err := rows.Scan(&q.ID, &q.Content, &q.ClassID, &q.StudentID, &q.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, &q)
	}

	return questions, rows.Err()
}

// GetQuestionAnswers returns a question's answers oldest first.
func (s *Store) GetQuestionAnswers(ctx context.Context, questionID int64) ([]*types.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, question_id, teacher_id, timestamp
		 FROM answers WHERE question_id = ?
		 ORDER BY timestamp ASC, id ASC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var answers []*types.Answer
	for rows.Next() {
		var a types.Answer
		if err := rows.Scan(&a.ID, &a.Content, &a.QuestionID, &a.TeacherID, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &a)
	}

	return answers, rows.Err()
}

// GetConversation returns the message history between two users oldest
// first, covering both directions.
func (s *Store) GetConversation(ctx context.Context, userID, otherID int64, limit int) ([]*types.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, content, timestamp, is_read
		 FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY timestamp ASC, id ASC LIMIT ?`,
		userID, otherID, otherID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp, &m.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// Close stops the writer goroutine and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	return s.db.Close()
}
