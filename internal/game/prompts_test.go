package game

import (
	"strings"
	"testing"
)

func TestSystemPromptKeepsSecretFromSpy(t *testing.T) {
	spy := &Participant{Name: "Ava", Role: SpyRole, Faction: FactionSpy}
	insider := &Participant{Name: "Noah", Role: "Nurse", Faction: FactionInsider}

	spyPrompt := systemPrompt(spy, "Hospital")
	if strings.Contains(spyPrompt, "You are the Nurse at the Hospital") {
		t.Fatal("spy prompt leaks the assignment")
	}
	if !strings.Contains(spyPrompt, "You are the spy") {
		t.Fatal("spy prompt should state the spy role")
	}
	// the red-herring catalog includes every deck entry, the secret among them
	for _, loc := range Catalog {
		if !strings.Contains(spyPrompt, loc.Name) {
			t.Fatalf("spy catalog is missing %q", loc.Name)
		}
	}

	insiderPrompt := systemPrompt(insider, "Hospital")
	if !strings.Contains(insiderPrompt, "Nurse") || !strings.Contains(insiderPrompt, "Hospital") {
		t.Fatal("insider prompt should state role and location")
	}
	if !strings.Contains(insiderPrompt, "never say the location's name") {
		t.Fatal("insider prompt should carry the concealment rule")
	}
}

func TestRenderTranscript(t *testing.T) {
	if got := renderTranscript(nil); !strings.Contains(got, "just started") {
		t.Fatalf("empty transcript rendering wrong: %q", got)
	}

	entries := []TranscriptEntry{
		{Kind: EntryQuestion, Asker: "Ava", Target: "Noah", Text: "When do you open?"},
		{Kind: EntryAnswer, Responder: "Noah", Text: "Early, usually."},
		{Kind: EntryAction, Actor: "Riley", Action: ActionAccuseSpy, Payload: "Ava", Text: "Riley accused Ava"},
	}
	got := renderTranscript(entries)
	for _, want := range []string{
		"Ava asks Noah: When do you open?",
		"Noah answers: Early, usually.",
		"Riley attempts accuse_spy(Ava)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("rendered transcript missing %q:\n%s", want, got)
		}
	}
}

func TestStripReplyTags(t *testing.T) {
	cases := map[string]string{
		"Answer: early in the morning": "early in the morning",
		"  My answer: around noon  ":   "around noon",
		"[Question]: do you like it?":  "do you like it?",
		"plain reply":                  "plain reply",
		"  padded reply  ":             "padded reply",
	}
	for in, want := range cases {
		if got := stripReplyTags(in); got != want {
			t.Fatalf("stripReplyTags(%q) = %q, want %q", in, got, want)
		}
	}
}
