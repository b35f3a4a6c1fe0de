package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"spyfall/internal/ai"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPhase    = errors.New("event is not legal in the current phase")
	ErrNotYourTurn     = errors.New("it is not the human's turn to ask")
	ErrNoOpenQuestion  = errors.New("no question is awaiting an answer")
	ErrUnknownTarget   = errors.New("target is unknown or eliminated")
	ErrIllegalAction   = errors.New("action is illegal for the actor's faction")
	ErrWindowClosed    = errors.New("the action window is not open")
	ErrWindowStillOpen = errors.New("the action window has not elapsed yet")
	ErrGameFinished    = errors.New("the game is already finished")
	ErrBadConfig       = errors.New("invalid session config")

	// ErrGeneration wraps content-provider failures. The session is left
	// untouched, so the event that hit it can be re-issued as is.
	ErrGeneration = errors.New("content generation failed")
)

// Session is the root aggregate: one game, exclusively owned by the
// engine and mutated only through its operations.
//
// evMu serializes whole events, including the awaited provider call, so
// no two mutations are ever in flight at once. mu guards the fields for
// snapshot reads while a long generation is pending.
type Session struct {
	Code       string
	CreatedAt  time.Time
	Config     SessionConfig
	HumanToken string

	location     string
	participants []*Participant
	phase        Phase
	turn         int // index of the current asker
	round        int // 1-based
	answers      int // answers since the round started
	pending      int // transcript index of the open question, -1 if none
	deadline     time.Time
	transcript   []TranscriptEntry
	verdict      *Verdict

	provider ai.Provider
	now      func() time.Time
	rng      *rand.Rand

	evMu sync.Mutex
	mu   sync.Mutex
}

func newSession(code string, cfg SessionConfig, provider ai.Provider, rng *rand.Rand) *Session {
	location, participants := drawAssignment(cfg, rng)
	return &Session{
		Code:         code,
		CreatedAt:    time.Now().UTC(),
		Config:       cfg,
		HumanToken:   uuid.NewString(),
		location:     location,
		participants: participants,
		phase:        PhaseAwaitingQuestion,
		turn:         rng.Intn(len(participants)),
		round:        1,
		pending:      -1,
		provider:     provider,
		now:          time.Now,
		rng:          rng,
	}
}

// AdvanceAutomated lets the current automated actor take its pending
// step: ask a question in AwaitingQuestion, or answer the open question
// in AwaitingAnswer. It suspends nothing itself; it is driven entirely
// by the presentation layer's advance trigger.
func (s *Session) AdvanceAutomated(ctx context.Context) error {
	s.evMu.Lock()
	defer s.evMu.Unlock()

	s.mu.Lock()
	if s.verdict != nil {
		s.mu.Unlock()
		return ErrGameFinished
	}

	switch s.phase {
	case PhaseAwaitingQuestion:
		asker := s.participants[s.turn]
		if asker.IsHuman {
			s.mu.Unlock()
			return fmt.Errorf("%w: waiting for the human to ask", ErrInvalidPhase)
		}
		target := s.pickTargetLocked(asker)
		if target == nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: no living target to question", ErrUnknownTarget)
		}
		system := systemPrompt(asker, s.location)
		prompt := renderTranscript(s.transcript) + "\n\n" + questionPrompt(target.Name, s.transcript)
		s.mu.Unlock()

		text, err := s.provider.CompleteWithSystem(ctx, s.Config.Model, system, prompt)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGeneration, err)
		}

		s.mu.Lock()
		s.appendLocked(TranscriptEntry{
			Kind:   EntryQuestion,
			Asker:  asker.Name,
			Target: target.Name,
			Text:   stripReplyTags(text),
		})
		s.pending = len(s.transcript) - 1
		if target.IsHuman {
			s.phase = PhaseAwaitingHumanAnswer
		} else {
			s.phase = PhaseAwaitingAnswer
		}
		s.mu.Unlock()
		return nil

	case PhaseAwaitingAnswer:
		q := &s.transcript[s.pending]
		responder := s.participantByNameLocked(q.Target)
		system := systemPrompt(responder, s.location)
		prompt := renderTranscript(s.transcript) + "\n\n" + answerPrompt(q.Text)
		s.mu.Unlock()

		text, err := s.provider.CompleteWithSystem(ctx, s.Config.Model, system, prompt)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGeneration, err)
		}

		s.mu.Lock()
		s.appendLocked(TranscriptEntry{
			Kind:      EntryAnswer,
			Responder: responder.Name,
			Text:      stripReplyTags(text),
		})
		s.pending = -1
		s.completeAnswerLocked(responder)
		s.mu.Unlock()
		return nil

	default:
		phase := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: nothing automated to do in %s", ErrInvalidPhase, phase)
	}
}

// SubmitQuestion applies the human's asking turn.
func (s *Session) SubmitQuestion(target, text string) error {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verdict != nil {
		return ErrGameFinished
	}
	if s.phase != PhaseAwaitingQuestion {
		return fmt.Errorf("%w: questions are only accepted in %s", ErrInvalidPhase, PhaseAwaitingQuestion)
	}
	asker := s.participants[s.turn]
	if !asker.IsHuman {
		return ErrNotYourTurn
	}
	if text == "" {
		return fmt.Errorf("%w: empty question", ErrInvalidPhase)
	}
	t := s.participantByNameLocked(target)
	if t == nil || !t.Alive || t == asker {
		return fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}

	s.appendLocked(TranscriptEntry{Kind: EntryQuestion, Asker: asker.Name, Target: t.Name, Text: text})
	s.pending = len(s.transcript) - 1
	if t.IsHuman {
		s.phase = PhaseAwaitingHumanAnswer
	} else {
		s.phase = PhaseAwaitingAnswer
	}
	return nil
}

// SubmitAnswer applies the human's answer to the open question.
func (s *Session) SubmitAnswer(text string) error {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verdict != nil {
		return ErrGameFinished
	}
	if s.phase != PhaseAwaitingHumanAnswer {
		return fmt.Errorf("%w: %v", ErrInvalidPhase, ErrNoOpenQuestion)
	}
	if text == "" {
		return fmt.Errorf("%w: empty answer", ErrInvalidPhase)
	}
	human := s.humanLocked()

	s.appendLocked(TranscriptEntry{Kind: EntryAnswer, Responder: human.Name, Text: text})
	s.pending = -1
	s.completeAnswerLocked(human)
	return nil
}

// SubmitAction routes a terminating action to the resolver. Timed
// configuration: legal during an open action window or on the human's
// own asking turn. Untimed configuration: legal whenever the game is
// still running.
func (s *Session) SubmitAction(kind ActionKind, payload string) error {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verdict != nil {
		return ErrGameFinished
	}
	switch {
	case s.phase == PhaseActionWindow:
		if !s.now().Before(s.deadline) {
			return ErrWindowClosed
		}
	case s.phase == PhaseAwaitingQuestion && s.participants[s.turn].IsHuman:
		// pre-empts the asking turn
	case !s.Config.Timed:
		// actions are always on the table in the open configuration
	default:
		return fmt.Errorf("%w: terminating actions are not legal in %s", ErrInvalidPhase, s.phase)
	}

	return s.resolveActionLocked(s.humanLocked(), kind, payload)
}

// WindowElapsed applies the action-window timeout event. Expiry is a
// pure function of the stored deadline, so a duplicate or late delivery
// is harmless and an early one is rejected.
func (s *Session) WindowElapsed() error {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActionWindow {
		return ErrWindowClosed
	}
	if s.now().Before(s.deadline) {
		return ErrWindowStillOpen
	}
	s.nextRoundLocked()
	return nil
}

// resolveActionLocked validates and scores a terminating action.
// Rejected attempts are logged to the transcript but change nothing
// else; resolved ones set the verdict exactly once.
func (s *Session) resolveActionLocked(actor *Participant, kind ActionKind, payload string) error {
	switch kind {
	case ActionAccuseSpy:
		target := s.participantByNameLocked(payload)
		if target == nil || !target.Alive || target == actor {
			return fmt.Errorf("%w: %q", ErrUnknownTarget, payload)
		}
		if actor.IsSpy() {
			s.appendLocked(TranscriptEntry{
				Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
				Outcome: OutcomeRejected,
				Text:    fmt.Sprintf("%s (spy) tried to accuse a suspect; only insiders may accuse", actor.Name),
			})
			return ErrIllegalAction
		}
		if target.IsSpy() {
			target.Alive = false
			s.appendLocked(TranscriptEntry{
				Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
				Outcome: OutcomeSpyCaught,
				Text:    fmt.Sprintf("%s accused %s, who was a spy", actor.Name, target.Name),
			})
			s.finishLocked(FactionInsider, fmt.Sprintf("%s caught the spy %s", actor.Name, target.Name))
			return nil
		}
		s.appendLocked(TranscriptEntry{
			Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
			Outcome: OutcomeWrongAccuse,
			Text:    fmt.Sprintf("%s accused %s, who was not a spy", actor.Name, target.Name),
		})
		s.finishLocked(FactionSpy, fmt.Sprintf("%s accused the wrong player; the spies stay hidden", actor.Name))
		return nil

	case ActionGuessLocation:
		if !actor.IsSpy() {
			s.appendLocked(TranscriptEntry{
				Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
				Outcome: OutcomeRejected,
				Text:    fmt.Sprintf("%s (insider) tried to guess the location; only spies may guess", actor.Name),
			})
			return ErrIllegalAction
		}
		if payload == s.location {
			s.appendLocked(TranscriptEntry{
				Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
				Outcome: OutcomeSpyGuessed,
				Text:    fmt.Sprintf("%s correctly named the location %q", actor.Name, payload),
			})
			s.finishLocked(FactionSpy, fmt.Sprintf("the spy %s uncovered the location", actor.Name))
			return nil
		}
		s.appendLocked(TranscriptEntry{
			Kind: EntryAction, Actor: actor.Name, Action: kind, Payload: payload,
			Outcome: OutcomeSpyExposed,
			Text:    fmt.Sprintf("%s guessed %q, but that was wrong", actor.Name, payload),
		})
		s.finishLocked(FactionInsider, fmt.Sprintf("the spy %s guessed wrong and exposed themself", actor.Name))
		return nil

	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrIllegalAction, kind)
	}
}

// completeAnswerLocked runs the turn sequencer and the round controller
// after an answer lands: the responder becomes the next asker, then the
// round boundary is checked.
func (s *Session) completeAnswerLocked(responder *Participant) {
	s.turn = responder.Index
	if !s.participants[s.turn].Alive {
		s.turn = s.nextLivingLocked(s.turn)
	}
	s.answers++
	if s.answers < s.livingCountLocked() {
		s.phase = PhaseAwaitingQuestion
		return
	}

	// round boundary
	if !s.Config.Timed {
		s.nextRoundLocked()
		return
	}
	if s.round >= s.Config.RoundLimit {
		s.finishLocked(FactionSpy, "round limit reached without a terminating action")
		return
	}
	s.phase = PhaseActionWindow
	s.deadline = s.now().Add(time.Duration(s.Config.ActionWindow) * time.Second)
}

func (s *Session) nextRoundLocked() {
	s.round++
	s.answers = 0
	s.deadline = time.Time{}
	s.phase = PhaseAwaitingQuestion
}

func (s *Session) finishLocked(winner Faction, reason string) {
	if s.verdict != nil {
		return
	}
	s.verdict = &Verdict{Winner: winner, Reason: reason}
	s.phase = PhaseFinished
}

func (s *Session) appendLocked(e TranscriptEntry) {
	e.ID = uuid.NewString()
	s.transcript = append(s.transcript, e)
}

func (s *Session) humanLocked() *Participant {
	return s.participants[s.Config.HumanIndex]
}

func (s *Session) participantByNameLocked(name string) *Participant {
	for _, p := range s.participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) livingCountLocked() int {
	n := 0
	for _, p := range s.participants {
		if p.Alive {
			n++
		}
	}
	return n
}

// nextLivingLocked walks ascending with wraparound until it finds a
// living participant other than the starting seat.
func (s *Session) nextLivingLocked(from int) int {
	n := len(s.participants)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if s.participants[idx].Alive {
			return idx
		}
	}
	return from
}

func (s *Session) pickTargetLocked(asker *Participant) *Participant {
	var candidates []*Participant
	for _, p := range s.participants {
		if p != asker && p.Alive {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.rng.Intn(len(candidates))]
}

func (s *Session) GetPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot builds the public read model. Roles and factions stay hidden
// until the game is finished; RoleFor reveals a participant's own card.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]Participant, len(s.participants))
	for i, p := range s.participants {
		parts[i] = *p
		if s.phase != PhaseFinished {
			parts[i].Role = ""
			parts[i].Faction = ""
		}
	}
	transcript := make([]TranscriptEntry, len(s.transcript))
	copy(transcript, s.transcript)

	var verdict *Verdict
	if s.verdict != nil {
		v := *s.verdict
		verdict = &v
	}
	var remaining float64
	if s.phase == PhaseActionWindow {
		if d := s.deadline.Sub(s.now()); d > 0 {
			remaining = d.Seconds()
		}
	}
	return Snapshot{
		Code:            s.Code,
		Phase:           s.phase,
		Turn:            s.turn,
		Round:           s.round,
		RoundLimit:      s.Config.RoundLimit,
		Participants:    parts,
		Transcript:      transcript,
		Verdict:         verdict,
		WindowRemaining: remaining,
		CreatedAt:       s.CreatedAt,
	}
}

// RoleFor returns the named participant's own card: role, faction, and
// the secret location for insiders (spies get an empty location).
func (s *Session) RoleFor(name string) (Participant, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.participantByNameLocked(name)
	if p == nil {
		return Participant{}, "", fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	location := ""
	if !p.IsSpy() {
		location = s.location
	}
	return *p, location, nil
}

// Location exposes the secret; intended for export and post-game reveal.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

func (s *Session) FinalVerdict() *Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verdict == nil {
		return nil
	}
	v := *s.verdict
	return &v
}
