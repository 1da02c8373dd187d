package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ScoreEntry
		wantErr bool
	}{
		{
			name:  "reason and integer score",
			input: `["Clear and structured answers", 8]`,
			want:  ScoreEntry{Reason: "Clear and structured answers", Score: 8},
		},
		{
			name:  "reason and decimal score",
			input: `["Some filler words", 6.5]`,
			want:  ScoreEntry{Reason: "Some filler words", Score: 6.5},
		},
		{
			name:    "too few elements",
			input:   `["only a reason"]`,
			wantErr: true,
		},
		{
			name:    "not an array",
			input:   `{"reason": "x", "score": 5}`,
			wantErr: true,
		},
		{
			name:    "non-numeric score",
			input:   `["reason", "eight"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry ScoreEntry
			err := json.Unmarshal([]byte(tt.input), &entry)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, entry)
			}
		})
	}
}

func TestScoreEntry_MarshalRoundTrip(t *testing.T) {
	entry := ScoreEntry{Reason: "Confident tone throughout", Score: 9}

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `["Confident tone throughout", 9]`, string(data))
}

func TestScoreReport_Unmarshal(t *testing.T) {
	payload := `{
		"verbal_communication_score": ["Articulate", 8],
		"non_verbal_communication_and_body_language_score": ["Good eye contact", 7.5],
		"emotional_and_vocal_tone_analysis_score": ["Calm and confident", 8],
		"skills_experience_professional_competence_score": ["Relevant experience", 9],
		"motivation_adaptability_professional_attitude_score": ["Highly motivated", 8.5]
	}`

	var report ScoreReport
	require.NoError(t, json.Unmarshal([]byte(payload), &report))

	assert.Equal(t, "Articulate", report.VerbalCommunication.Reason)
	assert.Equal(t, 7.5, report.NonVerbalCommunication.Score)
	assert.Equal(t, 8.5, report.MotivationAndAttitude.Score)
}
