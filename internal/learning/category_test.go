package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Category
	}{
		{"deleted work", "the assistant deleted my uncommitted changes", CategoryCorrectness},
		{"wrong file", "it edited the wrong file entirely", CategoryCorrectness},
		{"ignored instructions", "I told you twice to leave the tests alone and you ignored it", CategoryContext},
		{"forgot context", "it forgot what we agreed on earlier in the session", CategoryContext},
		{"shell misuse", "ran the command in the wrong directory and the script failed", CategoryTooling},
		{"slowness", "this is taking too long, way too many steps for a one-line fix", CategorySpeed},
		{"verbosity", "the answer was so verbose and unclear I couldn't follow it", CategoryCommunication},
		{"fallback", "something felt off about this one", CategoryGeneral},
		{"empty", "", CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.text))
		})
	}
}
