package dance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// emotionSet is every emotion the mascot's face rig knows.
var emotionSet = []string{
	"neutral", "joy", "sadness", "anger", "fear", "surprise", "disgust", "love",
	"suspicion", "excited", "resting", "euphoria", "focused", "glitch", "calm",
}

func TestEmotionPoolsUseKnownEmotions(t *testing.T) {
	for tier, pool := range emotionPools {
		assert.NotEmpty(t, pool, "tier %d", tier)
		for _, name := range pool {
			assert.Contains(t, emotionSet, name, "tier %d", tier)
		}
	}
	for _, name := range dramaticEmotions {
		assert.Contains(t, emotionSet, name, "dramatic")
	}
	assert.Contains(t, emotionSet, DefaultConfig().Emotion.HomeEmotion)
	assert.Subset(t, emotionSet, Emotions())
}

func TestEmotionsHasNoDuplicates(t *testing.T) {
	names := Emotions()
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate %q", n)
		seen[n] = true
	}
	assert.Contains(t, names, "glitch")
}
