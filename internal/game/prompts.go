package game

import (
	"fmt"
	"strings"
)

// Question inspiration handed to automated askers so consecutive rounds
// don't converge on the same two or three generic probes.
var questionExamples = []string{
	"What time do you usually head home from here? Give me an actual time.",
	"What's the hardest part of being here day to day?",
	"When does this place usually close up for the night?",
	"Which season brings the biggest crowds here, and why?",
	"Can you get here by public transport? How long does it take?",
	"Is there a minimum age to be here?",
	"How big is this place? How many people fit at once?",
	"What do you usually wear while you're here?",
	"What's the most expensive or important thing kept here?",
	"How noisy does it get around here?",
	"What's the most popular thing to do or order here?",
	"What rule matters most in this place?",
	"Does bad weather change the mood of this place?",
	"Do you need a reservation or a ticket to get in?",
	"Who handles the cleaning and upkeep here?",
	"Is there a security check before you get inside?",
	"How long have you been coming here? What's your experience?",
	"What's the strangest thing you've seen happen here?",
	"Is anything forbidden here?",
	"How many hours a day do you usually spend here?",
}

// systemPrompt builds the role context for one participant. Spies never
// see the chosen location; they get the full catalog instead.
func systemPrompt(p *Participant, location string) string {
	if p.IsSpy() {
		return fmt.Sprintf(
			"You are the spy. You do NOT know the current secret location. "+
				"Your goal is to deduce the location from the conversation, or finish the game without being suspected. "+
				"For reference, here is the full location catalog (the secret is one of these, but you don't know which):\n%s\n"+
				"Your name is %s. Stay vague and natural so nobody suspects you. Keep every reply under 15 words. "+
				"When asking, invent a new, concrete question that hasn't been asked before, and prefer specifics over generalities "+
				"(ask 'at what time' rather than 'when'). You may steer others toward a wrong location. "+
				"Question examples: %s",
			CatalogueText(), p.Name, strings.Join(questionExamples, "; "))
	}
	return fmt.Sprintf(
		"You are the %s at the %s. Your name is %s. "+
			"Keep the location hidden from the spy: never say the location's name or words that give it away directly "+
			"(a nurse must not say 'hospital' or 'patient'). "+
			"Answer truthfully but vaguely and indirectly, so the spy can't pin the place down. "+
			"Keep every reply under 15 words, concrete and natural.",
		p.Role, location, p.Name)
}

// questionPrompt is the per-turn instruction for an automated asker.
func questionPrompt(target string, _ []TranscriptEntry) string {
	return fmt.Sprintf(
		"It is your turn. Ask player %q one new, specific question. "+
			"Never repeat or closely mirror a question already asked in this game. "+
			"Reply with the question text only, no tags or preamble, under 15 words. "+
			"Do not attempt to accuse anyone or guess the location during this turn; only ask.",
		target)
}

// answerPrompt is the per-turn instruction for an automated responder.
func answerPrompt(question string) string {
	return fmt.Sprintf(
		"You were asked: %q. Answer in character following your answer rules, under 15 words. "+
			"Reply with the answer text only, no tags or preamble.",
		question)
}

// renderTranscript flattens the transcript into the conversational
// context handed to the provider.
func renderTranscript(entries []TranscriptEntry) string {
	if len(entries) == 0 {
		return "The game has just started; nothing has been said yet."
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case EntryQuestion:
			lines = append(lines, fmt.Sprintf("%s asks %s: %s", e.Asker, e.Target, e.Text))
		case EntryAnswer:
			lines = append(lines, fmt.Sprintf("%s answers: %s", e.Responder, e.Text))
		case EntryAction:
			lines = append(lines, fmt.Sprintf("%s attempts %s(%s)", e.Actor, e.Action, e.Payload))
		}
	}
	return "Game so far:\n" + strings.Join(lines, "\n")
}

// Models occasionally prefix their reply despite the instructions.
var replyTags = []string{"my answer:", "[answer]:", "answer:", "my question:", "[question]:", "question:"}

func stripReplyTags(text string) string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, tag := range replyTags {
		if strings.HasPrefix(lower, tag) {
			return strings.TrimSpace(text[len(tag):])
		}
	}
	return text
}
