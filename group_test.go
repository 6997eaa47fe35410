package webpubsub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupNameIsDeterministic(t *testing.T) {
	assert.Equal(t, groupName("/chat"), groupName("/chat"))
	assert.Equal(t, roomGroupName("/chat", "room1"), roomGroupName("/chat", "room1"))
}

func TestGroupNameInjectivity(t *testing.T) {
	pairs := [][2]string{
		{"/", ""},
		{"/", "r"},
		{"/chat", ""},
		{"/chat", "r"},
		{"/chat", "r2"},
		{"/ch", "at"},
		{"/cha", "t"},
		// Room names that could collide with a naive scheme.
		{"/chat", "a~b"},
		{"/chat~a", "b"},
	}

	seen := make(map[string][2]string)
	for _, pair := range pairs {
		name := roomGroupName(pair[0], pair[1])
		prev, dup := seen[name]
		assert.False(t, dup, "collision between %v and %v", prev, pair)
		seen[name] = pair
	}

	// The namespace-wide group must not collide with any room group,
	// including the empty room.
	for _, ns := range []string{"/", "/chat"} {
		name := groupName(ns)
		_, dup := seen[name]
		assert.False(t, dup)
		assert.NotEqual(t, roomGroupName(ns, ""), name)
	}
}

func TestGroupNameDelimiterNeverAppearsInSegments(t *testing.T) {
	name := roomGroupName("/a~b/c", "room~with~delimiters")
	assert.Equal(t, 2, strings.Count(name, groupDelimiter))

	name = groupName("/a~b/c")
	assert.Equal(t, 1, strings.Count(name, groupDelimiter))
}

func TestGroupNameIsVersionTagged(t *testing.T) {
	assert.True(t, strings.HasPrefix(groupName("/chat"), "0~"))
	assert.True(t, strings.HasPrefix(roomGroupName("/chat", "r"), "0~"))
}
