package types

// ThreadState is the lifecycle state of a thread.
type ThreadState string

// Thread lifecycle state constants
const (
	StateLooming    ThreadState = "looming"    // Decaying toward its horizon
	StateReflection ThreadState = "reflection" // Energy spent, awaiting a resolution
	StateArchived   ThreadState = "archived"   // Resolved as weaved or released
)

// ValidThreadStates contains all valid thread state values
var ValidThreadStates = []ThreadState{
	StateLooming,
	StateReflection,
	StateArchived,
}

// IsValidThreadState checks if the given state is a valid thread state.
func IsValidThreadState(state ThreadState) bool {
	for _, validState := range ValidThreadStates {
		if state == validState {
			return true
		}
	}
	return false
}

// IsValidThreadTransition validates thread state transitions.
//
// Valid transitions:
//
//	(empty) -> looming
//	looming -> reflection | archived
//	reflection -> archived
//	archived -> (terminal, no transitions out)
func IsValidThreadTransition(currentState, newState ThreadState) bool {
	switch currentState {
	case "":
		return newState == StateLooming

	case StateLooming:
		return newState == StateReflection || newState == StateArchived

	case StateReflection:
		return newState == StateArchived

	case StateArchived:
		return false // Terminal state, no transitions out

	default:
		return false
	}
}
