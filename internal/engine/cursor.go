package engine

// Mode names the view the session cursor points at.
type Mode string

const (
	// ModeSelection covers both the module list (no module selected)
	// and a module's overview submenu (module selected).
	ModeSelection   Mode = "selection"
	ModeMaterial    Mode = "material"
	ModeQuiz        Mode = "quiz"
	ModeCertificate Mode = "certificate"
)

// Cursor is the persisted session position: which module is open, which
// question the quiz is on, and which view the user was last in. The
// zero value is the zeroth state: no module selected, selection view.
type Cursor struct {
	ModuleKey     string       `json:"module_key,omitempty"`
	QuestionIndex int          `json:"question_index"`
	Mode          Mode         `json:"mode"`
	Certificate   *Certificate `json:"certificate,omitempty"`
}

// HasModule reports whether a module is selected.
func (c Cursor) HasModule() bool {
	return c.ModuleKey != ""
}

// normalize repairs a cursor that no longer makes sense, typically
// after a catalog change between sessions. Any inconsistency collapses
// to the nearest sensible state rather than failing resume.
func (c Cursor) normalize(questions int) Cursor {
	if c.Mode == "" {
		c.Mode = ModeSelection
	}
	if !c.HasModule() {
		return Cursor{Mode: ModeSelection}
	}
	if c.QuestionIndex < 0 {
		c.QuestionIndex = 0
	}
	if c.QuestionIndex >= questions {
		c.QuestionIndex = max(questions-1, 0)
	}
	if c.Mode == ModeCertificate && c.Certificate == nil {
		c.Mode = ModeSelection
	}
	return c
}
