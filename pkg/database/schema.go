package database

import (
	"database/sql"
	"fmt"
)

// schemaDDL creates the persistence tables for the realtime layer:
// direct-chat messages, class questions and their answers. Answers are
// removed with their parent question at the database level; the realtime
// layer never cascades itself.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id   INTEGER NOT NULL,
	receiver_id INTEGER NOT NULL,
	content     TEXT    NOT NULL,
	timestamp   DATETIME NOT NULL,
	is_read     BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_messages_sender_receiver
	ON messages(sender_id, receiver_id);

CREATE TABLE IF NOT EXISTS questions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	content    TEXT    NOT NULL,
	class_id   INTEGER NOT NULL,
	student_id INTEGER NOT NULL,
	timestamp  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_class
	ON questions(class_id);

CREATE TABLE IF NOT EXISTS answers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	content     TEXT    NOT NULL,
	question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	teacher_id  INTEGER NOT NULL,
	timestamp   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answers_question
	ON answers(question_id);
`

// Bootstrap applies the schema DDL. Safe to run on every startup.
func Bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

// ValidateTablesExist verifies the bootstrap produced every table the
// store depends on. Used by startup checks and deployment verification.
func ValidateTablesExist(db *sql.DB) error {
	required := []string{"messages", "questions", "answers"}

	for _, table := range required {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("required table %s does not exist", table)
		}
		if err != nil {
			return fmt.Errorf("error checking table %s: %w", table, err)
		}
	}

	return nil
}
