package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTagsToDelete(t *testing.T) {
	tags := []string{"v1.0.0", "v1.2.0", "latest", "v1.10.0", "v0.9.1"}
	t.Run("Should keep the newest semver tags", func(t *testing.T) {
		assert.Equal(t, []string{"v1.0.0", "v0.9.1"}, TagsToDelete(tags, 2))
	})
	t.Run("Should never select non semver tags", func(t *testing.T) {
		assert.NotContains(t, TagsToDelete(tags, 0), "latest")
	})
	t.Run("Should return nothing when keep covers every tag", func(t *testing.T) {
		assert.Empty(t, TagsToDelete(tags, 10))
	})
}

func TestDispatchHistory(t *testing.T) {
	t.Run("Should trim to the limit and list newest first", func(t *testing.T) {
		var h DispatchHistory
		for i, ev := range []string{"a", "b", "c"} {
			h.Append(DispatchRecord{EventType: ev, DispatchAt: time.Unix(int64(i), 0)}, 2)
		}
		latest := h.Latest(0)
		assert.Len(t, latest, 2)
		assert.Equal(t, "c", latest[0].EventType)
		assert.Equal(t, "b", latest[1].EventType)
	})
	t.Run("Should count distinct event types per repository", func(t *testing.T) {
		var h DispatchHistory
		h.Append(DispatchRecord{Owner: "o", Repo: "r", EventType: "x"}, 0)
		h.Append(DispatchRecord{Owner: "o", Repo: "r", EventType: "x"}, 0)
		h.Append(DispatchRecord{Owner: "o", Repo: "r", EventType: "y"}, 0)
		h.Append(DispatchRecord{Owner: "o", Repo: "other", EventType: "z"}, 0)
		assert.Equal(t, 2, h.DistinctEventTypes("o", "r"))
	})
}

func TestBatchResult(t *testing.T) {
	var r BatchResult
	r.Record("v1", nil)
	r.Record("v2", assert.AnError)
	r.Record("v3", nil)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, "2/3 tags deleted (failed: v2)", r.Summary("tags"))
}
