package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCompletions(t *testing.T) {
	cands := []string{"/docs/readme.md", "/docs/guide.md", "/notes/todo.txt"}

	assert.Equal(t, cands, ScoreCompletions("", cands, 1))
	assert.Equal(t, []string{"/docs/guide.md"}, ScoreCompletions("guide", cands, 0))
	assert.Nil(t, ScoreCompletions("xyz", cands, 5))
	assert.Len(t, ScoreCompletions("docs", cands, 1), 1)
	assert.Len(t, ScoreCompletions("d", cands, 0), 3)
}
