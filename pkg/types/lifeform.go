package types

import "time"

// Question status values.
const (
	QuestionPending  = "pending"
	QuestionAnswered = "answered"
)

// LifeformState is the singleton internal state of the lifeform.
type LifeformState struct {
	ID              int64      `json:"-"`
	Mood            string     `json:"mood"`
	Curiosity       float64    `json:"curiosity"` // 0..1
	LastReflectedAt *time.Time `json:"-"`
}

// Question is a prompt the lifeform asks. At most one question is pending
// at any time.
type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Memory is a user reply to a question.
type Memory struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserReply  string    `json:"user_reply"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reflection is what the lifeform concluded after ingesting a memory.
type Reflection struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionPayload is the wire shape of a pending question.
type QuestionPayload struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ReflectionPayload is the wire shape of the latest reflection.
type ReflectionPayload struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// MoodPayload is the wire shape of the lifeform state.
type MoodPayload struct {
	Mood      string  `json:"mood"`
	Curiosity float64 `json:"curiosity"`
}

// StatePayload is the response of GET /api/state and POST /api/reply.
type StatePayload struct {
	PendingQuestion *QuestionPayload   `json:"pending_question"`
	LastReflection  *ReflectionPayload `json:"last_reflection"`
	MemoriesCount   int                `json:"memories_count"`
	State           MoodPayload        `json:"state"`
}

// ReplyRequest is the body of POST /api/reply.
type ReplyRequest struct {
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
}
