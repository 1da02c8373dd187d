package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "full config",
			config: &Config{
				Host:     "db.internal",
				Port:     5432,
				User:     "analysis",
				Password: "secret",
				Database: "interview_analysis",
				SSLMode:  "require",
			},
			expected: "host=db.internal port=5432 user=analysis password=secret dbname=interview_analysis sslmode=require",
		},
		{
			name: "local development",
			config: &Config{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "postgres",
				Database: "interview_analysis",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=postgres password=postgres dbname=interview_analysis sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildDSN(tt.config))
		})
	}
}
