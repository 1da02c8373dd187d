package domain

import (
	"encoding/json"
	"fmt"
)

// BodyLanguageReport is the structured output of the video analysis call.
type BodyLanguageReport struct {
	VerbalCommunication    string `json:"verbal_communication"`
	NonVerbalCommunication string `json:"non_verbal_communication_and_body_language"`
	EmotionalAndVocalTone  string `json:"emotional_and_vocal_tone_analysis"`
}

// ScoreEntry is one scored criterion: a justification paired with a
// 0-10 number. The provider emits it as a two-element JSON array.
type ScoreEntry struct {
	Reason string
	Score  float64
}

// UnmarshalJSON decodes the provider's [reason, score] pair.
func (s *ScoreEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("score entry must have exactly 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Reason); err != nil {
		return fmt.Errorf("score entry reason: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Score); err != nil {
		return fmt.Errorf("score entry value: %w", err)
	}
	return nil
}

// MarshalJSON encodes the entry back to the [reason, score] pair form.
func (s ScoreEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Reason, s.Score})
}

// ScoreReport holds the five scored evaluation criteria.
type ScoreReport struct {
	VerbalCommunication    ScoreEntry `json:"verbal_communication_score"`
	NonVerbalCommunication ScoreEntry `json:"non_verbal_communication_and_body_language_score"`
	EmotionalAndVocalTone  ScoreEntry `json:"emotional_and_vocal_tone_analysis_score"`
	SkillsAndExperience    ScoreEntry `json:"skills_experience_professional_competence_score"`
	MotivationAndAttitude  ScoreEntry `json:"motivation_adaptability_professional_attitude_score"`
}

// AnalysisResult combines the two inference stages into the final report
// persisted per job.
type AnalysisResult struct {
	BodyLanguageAnalysis *BodyLanguageReport `json:"body_language_analysis"`
	CandidateScore       *ScoreReport        `json:"candidate_score"`
}
