package game

import (
	"time"
)

type Phase string

const (
	PhaseAwaitingQuestion    Phase = "AwaitingQuestion"
	PhaseAwaitingAnswer      Phase = "AwaitingAnswer"
	PhaseAwaitingHumanAnswer Phase = "AwaitingHumanAnswer"
	PhaseActionWindow        Phase = "ActionWindow"
	PhaseFinished            Phase = "Finished"
)

type Faction string

const (
	FactionSpy     Faction = "spy"
	FactionInsider Faction = "insider"
)

type SessionConfig struct {
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	PlayerNames  []string `json:"playerNames"`  // ordered seats; HumanIndex selects the human one
	HumanIndex   int      `json:"humanIndex"`   // index into PlayerNames
	SpyCount     int      `json:"spyCount"`     // reference config: 2
	RoundLimit   int      `json:"roundLimit"`   // reference config: 3; ignored when Timed is false
	ActionWindow int      `json:"actionWindow"` // seconds; reference config: 10
	Timed        bool     `json:"timed"`        // true: bounded rounds + timed action windows
}

type Participant struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Role    string  `json:"role"` // location role, or "Spy"
	Faction Faction `json:"faction"`
	IsHuman bool    `json:"isHuman"`
	Alive   bool    `json:"alive"`
}

func (p *Participant) IsSpy() bool { return p.Faction == FactionSpy }

type EntryKind string

const (
	EntryQuestion EntryKind = "question"
	EntryAnswer   EntryKind = "answer"
	EntryAction   EntryKind = "action"
)

type ActionKind string

const (
	ActionAccuseSpy     ActionKind = "accuse_spy"
	ActionGuessLocation ActionKind = "guess_location"
)

type Outcome string

const (
	OutcomeSpyCaught   Outcome = "spy_caught"   // correct accusation
	OutcomeWrongAccuse Outcome = "wrong_accuse" // accused an insider
	OutcomeSpyGuessed  Outcome = "spy_guessed"  // spy named the secret location
	OutcomeSpyExposed  Outcome = "spy_exposed"  // spy guessed wrong
	OutcomeRejected    Outcome = "rejected"     // illegal attempt, no effect on phase
)

// TranscriptEntry is a tagged record: exactly one of the three kinds,
// with the fields of the other kinds left empty. Entries are append-only
// and their slice order is the sole timing authority.
type TranscriptEntry struct {
	ID   string    `json:"id"`
	Kind EntryKind `json:"kind"`

	// question
	Asker  string `json:"asker,omitempty"`
	Target string `json:"target,omitempty"`

	// answer
	Responder string `json:"responder,omitempty"`

	// action
	Actor   string     `json:"actor,omitempty"`
	Action  ActionKind `json:"action,omitempty"`
	Payload string     `json:"payload,omitempty"`
	Outcome Outcome    `json:"outcome,omitempty"`

	Text string `json:"text"`
}

type Verdict struct {
	Winner Faction `json:"winner"`
	Reason string  `json:"reason"`
}

// Snapshot is the read model handed to the presentation layer. It is a
// deep copy; mutating it never touches session state.
type Snapshot struct {
	Code            string            `json:"sessionCode"`
	Phase           Phase             `json:"phase"`
	Turn            int               `json:"turn"`
	Round           int               `json:"round"`
	RoundLimit      int               `json:"roundLimit"`
	Participants    []Participant     `json:"participants"`
	Transcript      []TranscriptEntry `json:"transcript"`
	Verdict         *Verdict          `json:"verdict"`
	WindowRemaining float64           `json:"windowRemaining"` // seconds, 0 outside ActionWindow
	CreatedAt       time.Time         `json:"createdAt"`
}
