// Package storage defines the persistence contract of the lifeform server.
//
// Backends live in the sqlite and postgres subpackages. Both keep a single
// lifeform_state row alongside the questions, memories (user replies) and
// reflections tables.
package storage

import (
	"context"
	"fmt"

	"github.com/scrypster/ephemera/pkg/types"
)

// LifeformStore persists the lifeform's state and conversation history.
type LifeformStore interface {
	// EnsureState returns the singleton state row, creating it with the
	// initial mood and curiosity when it does not exist.
	EnsureState(ctx context.Context) (*types.LifeformState, error)

	// PendingQuestion returns the oldest pending question.
	// Returns ErrNotFound when no question is pending.
	PendingQuestion(ctx context.Context) (*types.Question, error)

	// LatestReflection returns the most recently created reflection.
	// Returns ErrNotFound when there are none.
	LatestReflection(ctx context.Context) (*types.Reflection, error)

	// GetQuestion retrieves a question by ID.
	// Returns ErrNotFound if the question doesn't exist.
	GetQuestion(ctx context.Context, id int64) (*types.Question, error)

	// CreateQuestion stores a new pending question.
	CreateQuestion(ctx context.Context, text string) (*types.Question, error)

	// AnswerQuestion records the reply as a memory and marks the question
	// answered in one transaction. Returns ErrNotFound for an unknown
	// question and ErrConflict when it is no longer pending.
	AnswerQuestion(ctx context.Context, questionID int64, reply string) (*types.Memory, error)

	// RecordReflection stores a reflection and overwrites the state row in
	// one transaction.
	RecordReflection(ctx context.Context, questionID int64, text string, state types.LifeformState) (*types.Reflection, error)

	// CountMemories returns the total number of stored replies.
	CountMemories(ctx context.Context) (int, error)

	// Close releases the underlying database.
	Close() error
}

// StateID is the primary key of the singleton lifeform_state row.
const StateID = 1

// InitialState is the state of a newly created lifeform.
func InitialState() types.LifeformState {
	return types.LifeformState{ID: StateID, Mood: "curious", Curiosity: 0.5}
}

// ValidateState rejects states the schema would refuse.
func ValidateState(state types.LifeformState) error {
	if state.Curiosity < 0 || state.Curiosity > 1 {
		return fmt.Errorf("%w: curiosity %v outside [0, 1]", ErrInvalidInput, state.Curiosity)
	}
	if state.Mood == "" {
		return fmt.Errorf("%w: mood is required", ErrInvalidInput)
	}
	return nil
}
