// Package transcript turns raw diarized phrase data into ordered speaker
// turns and a formatted transcript string. It has no side effects.
package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// Phrase is one time-stamped utterance from the transcription provider.
// Speaker and Confidence are optional on the wire.
type Phrase struct {
	Speaker              *int     `json:"speaker,omitempty"`
	OffsetMilliseconds   int64    `json:"offsetMilliseconds"`
	DurationMilliseconds int64    `json:"durationMilliseconds"`
	Text                 string   `json:"text"`
	Confidence           *float64 `json:"confidence,omitempty"`
}

// RawTranscription is the diarized payload returned by the provider.
type RawTranscription struct {
	Phrases []Phrase `json:"phrases"`
}

// Turn is a contiguous run of phrases from one speaker.
type Turn struct {
	SpeakerID   int     `json:"speaker_id"`
	StartTimeMs int64   `json:"start_time_ms"`
	EndTimeMs   int64   `json:"end_time_ms"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
}

// Assemble groups phrases into speaker turns. Phrases are stable-sorted by
// start offset, phrases without a speaker attribution are discarded, and a
// new turn starts whenever the speaker changes. Turn confidence is a
// running average: each confident phrase halves the weight of everything
// before it, and phrases without confidence leave the average untouched.
func Assemble(raw *RawTranscription) []Turn {
	if raw == nil || len(raw.Phrases) == 0 {
		return nil
	}

	phrases := make([]Phrase, len(raw.Phrases))
	copy(phrases, raw.Phrases)
	sort.SliceStable(phrases, func(i, j int) bool {
		return phrases[i].OffsetMilliseconds < phrases[j].OffsetMilliseconds
	})

	var turns []Turn
	var current *Turn
	var texts []string
	currentSpeaker := -1

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(texts, " ")
		turns = append(turns, *current)
		current = nil
		texts = nil
	}

	for _, phrase := range phrases {
		if phrase.Speaker == nil {
			continue
		}

		speaker := *phrase.Speaker
		endMs := phrase.OffsetMilliseconds + phrase.DurationMilliseconds

		if current == nil || speaker != currentSpeaker {
			flush()

			confidence := 0.0
			if phrase.Confidence != nil {
				confidence = *phrase.Confidence
			}
			current = &Turn{
				SpeakerID:   speaker,
				StartTimeMs: phrase.OffsetMilliseconds,
				EndTimeMs:   endMs,
				StartTime:   formatClock(phrase.OffsetMilliseconds),
				EndTime:     formatClock(endMs),
				Confidence:  confidence,
			}
			texts = []string{phrase.Text}
			currentSpeaker = speaker
			continue
		}

		texts = append(texts, phrase.Text)
		current.EndTimeMs = endMs
		current.EndTime = formatClock(endMs)
		if phrase.Confidence != nil {
			current.Confidence = (current.Confidence + *phrase.Confidence) / 2
		}
	}

	flush()
	return turns
}

// Format renders turns as the transcript string consumed by the inference
// calls: one line per turn, newline-joined, no trailing newline.
func Format(turns []Turn) string {
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "speaker %d: \"%s\"", turn.SpeakerID, turn.Text)
	}
	return b.String()
}

// formatClock converts milliseconds to MM:SS, or HH:MM:SS past the hour.
func formatClock(ms int64) string {
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
