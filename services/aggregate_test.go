package services

import (
	"math/rand"
	"testing"

	"breadit/models"

	"github.com/stretchr/testify/assert"
)

func votesOf(types ...models.VoteType) []models.Vote {
	out := make([]models.Vote, len(types))
	for i, t := range types {
		out[i] = models.Vote{UserID: string(rune('a' + i)), Type: t}
	}
	return out
}

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0, Score(nil))
	assert.Equal(t, 0, Score([]models.Vote{}))
}

func TestScore_Sum(t *testing.T) {
	assert.Equal(t, 1, Score(votesOf(models.VoteUp)))
	assert.Equal(t, -1, Score(votesOf(models.VoteDown)))
	assert.Equal(t, 1, Score(votesOf(models.VoteUp, models.VoteUp, models.VoteDown)))
	assert.Equal(t, -3, Score(votesOf(models.VoteDown, models.VoteDown, models.VoteDown)))
}

func TestScore_OrderIndependent(t *testing.T) {
	votes := votesOf(models.VoteUp, models.VoteDown, models.VoteUp, models.VoteUp, models.VoteDown, models.VoteUp)
	want := Score(votes)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]models.Vote(nil), votes...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Score(shuffled))
	}
}

func TestVoteOf(t *testing.T) {
	votes := []models.Vote{{UserID: "u1", Type: models.VoteUp}, {UserID: "u2", Type: models.VoteDown}}
	assert.Equal(t, models.VoteDown, VoteOf(votes, "u2"))
	assert.Equal(t, models.VoteType(""), VoteOf(votes, "u3"))
	assert.Equal(t, models.VoteType(""), VoteOf(votes, ""))
}
