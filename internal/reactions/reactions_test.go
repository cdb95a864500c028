package reactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupEmpty(t *testing.T) {
	grouped := Group(nil, "user-1")
	assert.Empty(t, grouped)
}

func TestGroupCountsDistinctUsers(t *testing.T) {
	rows := []Row{
		{Emoji: "👍", UserID: "user-1"},
		{Emoji: "👍", UserID: "user-2"},
		{Emoji: "🎉", UserID: "user-3"},
		{Emoji: "👍", UserID: "user-3"},
	}

	grouped := Group(rows, "user-2")

	assert.Len(t, grouped, 2)
	assert.Equal(t, Grouped{Emoji: "👍", Count: 3, ReactedByMe: true}, grouped[0])
	assert.Equal(t, Grouped{Emoji: "🎉", Count: 1, ReactedByMe: false}, grouped[1])
}

func TestGroupReactedByMeOnlyForViewer(t *testing.T) {
	rows := []Row{
		{Emoji: "❤️", UserID: "user-1"},
		{Emoji: "❤️", UserID: "user-2"},
	}

	grouped := Group(rows, "user-9")

	assert.Len(t, grouped, 1)
	assert.False(t, grouped[0].ReactedByMe)
	assert.Equal(t, 2, grouped[0].Count)
}

func TestGroupPreservesFirstOccurrenceOrder(t *testing.T) {
	rows := []Row{
		{Emoji: "🥇", UserID: "a"},
		{Emoji: "🥈", UserID: "b"},
		{Emoji: "🥇", UserID: "c"},
		{Emoji: "🥉", UserID: "d"},
		{Emoji: "🥈", UserID: "e"},
	}

	grouped := Group(rows, "a")

	emojis := make([]string, len(grouped))
	for i, g := range grouped {
		emojis[i] = g.Emoji
	}
	assert.Equal(t, []string{"🥇", "🥈", "🥉"}, emojis)
}
