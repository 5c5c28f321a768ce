package assessment

// TaskID names a scored task ("Task1", "Task2", ...). Unique per module.
type TaskID string

const (
	// DefaultMaxScore is the score a task starts with when it is
	// initialised implicitly.
	DefaultMaxScore = 100

	// DefaultMissPenalty is deducted at finalization from a task that was
	// initialised but never attempted.
	DefaultMissPenalty = 50
)

// Finalization messages.
const (
	NotAttemptedDescription = "Task was not attempted."
	NotAttemptedTip         = "Make sure to complete this task next time."
	MissedDescription       = "Task capturing was not made."
	MissedTip               = "You must capture the scene."
)

// Report placeholders.
const (
	NoDataText     = "No capturing data available."
	NoMistakesText = "No mistakes."
	NoTipsText     = "No tips available."
	NoGradeText    = "N/A"
)

// MistakeRecord is one logged deduction. Records are never modified after
// they are appended.
type MistakeRecord struct {
	Description string
	Deduction   int
	Tip         string
}

// TaskAssessment is the scoring state of a single task.
type TaskAssessment struct {
	MaxScore     int
	CurrentScore int
	WasAttempted bool
	Records      []MistakeRecord

	finalized bool
}

// Finalized reports whether the end-of-session sweep already processed
// this task.
func (a *TaskAssessment) Finalized() bool {
	return a.finalized
}

// Observer receives ledger events. Callbacks run after the ledger lock is
// released, on the caller's goroutine.
type Observer interface {
	MistakeLogged(id TaskID, rec MistakeRecord, currentScore int)
	SuccessLogged(id TaskID)
}

// Config holds ledger settings.
type Config struct {
	// Expected is the set of tasks the overall score is computed over.
	Expected []TaskID

	// MissPenalty is applied at finalization to initialised but
	// unattempted tasks. Zero selects DefaultMissPenalty.
	MissPenalty int
}

// DefaultExpected is the task set of a standard three-task module.
var DefaultExpected = []TaskID{"Task1", "Task2", "Task3"}

// DefaultConfig returns the configuration of a standard three-task module.
func DefaultConfig() Config {
	return Config{
		Expected:    append([]TaskID(nil), DefaultExpected...),
		MissPenalty: DefaultMissPenalty,
	}
}
