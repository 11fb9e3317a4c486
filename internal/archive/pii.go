package archive

import (
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
)

var (
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe  = regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
	urlRe    = regexp.MustCompile(`https?://[^\s)]+`)
	handleRe = regexp.MustCompile(`(^|[\s(])@[A-Za-z0-9_]{2,30}\b`)
)

// HashSessionID returns the hex-encoded SHA-256 hash of a participant id.
func HashSessionID(id string) string {
	h := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%x", h)
}

// ScrubPII replaces emails, phone numbers, links and @handles with placeholders.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = urlRe.ReplaceAllString(text, "[URL]")
	text = handleRe.ReplaceAllString(text, "${1}[HANDLE]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}

// ScrubRecord returns a copy of record with every free-text field scrubbed.
// The participant id is replaced by its hash.
func ScrubRecord(record narrative.PackageRecord) narrative.PackageRecord {
	out := record
	out.SessionID = HashSessionID(record.SessionID)
	out.Scenario = ScrubPII(record.Scenario)
	out.Answers = narrative.AnswerSet{
		What:     ScrubPII(record.Answers.What),
		Context:  ScrubPII(record.Answers.Context),
		Outcome:  ScrubPII(record.Answers.Outcome),
		Reaction: ScrubPII(record.Answers.Reaction),
	}

	out.Scenarios = make([]narrative.VariantRecord, len(record.Scenarios))
	for i, v := range record.Scenarios {
		v.Text = ScrubPII(v.Text)
		v.FeedbackComment = ScrubPII(v.FeedbackComment)
		out.Scenarios[i] = v
	}
	out.Transcript = make([]narrative.TranscriptPair, len(record.Transcript))
	for i, turn := range record.Transcript {
		turn.Text = ScrubPII(turn.Text)
		out.Transcript[i] = turn
	}
	out.Adaptations = make([]narrative.AdaptationEntry, len(record.Adaptations))
	for i, entry := range record.Adaptations {
		out.Adaptations[i] = narrative.AdaptationEntry{Source: ScrubPII(entry.Source), Result: ScrubPII(entry.Result)}
	}
	return out
}
