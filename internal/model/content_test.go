package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContent = `{
  "free": {"pages": [{"id": "p1", "title": "Intro", "blocks": [
    {"type": "heading", "id": "b1", "level": 1, "text": "Hello"},
    {"type": "image", "id": "b2", "url": "blob:http://localhost/abc", "alt": "diagram"},
    {"type": "quiz", "id": "b3", "question": "2+2?", "options": ["3", "4"], "correctIndex": 1}
  ]}]},
  "premium": {"pages": [{"id": "p2", "title": "Deep", "blocks": [
    {"type": "video", "id": "b4", "url": "https://cdn.example.com/v.mp4"},
    {"type": "divider", "id": "b5"}
  ]}]}
}`

func TestContentVersions_UnmarshalTypedBlocks(t *testing.T) {
	var cv ContentVersions
	require.NoError(t, json.Unmarshal([]byte(sampleContent), &cv))

	require.Len(t, cv.Free.Pages, 1)
	blocks := cv.Free.Pages[0].Blocks
	require.Len(t, blocks, 3)

	heading, ok := blocks[0].(*HeadingBlock)
	require.True(t, ok)
	assert.Equal(t, "Hello", heading.Text)

	img, ok := blocks[1].(*ImageBlock)
	require.True(t, ok)
	assert.Equal(t, "diagram", img.Alt)

	quiz, ok := blocks[2].(*QuizBlock)
	require.True(t, ok)
	assert.Equal(t, 1, quiz.CorrectIndex)
	assert.Equal(t, 5, cv.BlockCount())
}

func TestContentVersions_MarshalKeepsType(t *testing.T) {
	var cv ContentVersions
	require.NoError(t, json.Unmarshal([]byte(sampleContent), &cv))

	raw, err := json.Marshal(cv)
	require.NoError(t, err)

	var generic struct {
		Premium struct {
			Pages []struct {
				Blocks []map[string]interface{} `json:"blocks"`
			} `json:"pages"`
		} `json:"premium"`
	}
	require.NoError(t, json.Unmarshal(raw, &generic))
	blocks := generic.Premium.Pages[0].Blocks
	assert.Equal(t, "video", blocks[0]["type"])
	assert.Equal(t, "divider", blocks[1]["type"])
}

func TestBlocks_UnknownTypeRejected(t *testing.T) {
	var bs Blocks
	err := json.Unmarshal([]byte(`[{"type": "hologram", "id": "x"}]`), &bs)
	assert.ErrorIs(t, err, ErrUnknownBlockType)
}

func TestContentVersions_WalkMediaOrder(t *testing.T) {
	var cv ContentVersions
	require.NoError(t, json.Unmarshal([]byte(sampleContent), &cv))

	var seen []string
	err := cv.WalkMedia(func(tier string, page *Page, mb MediaBlock) error {
		seen = append(seen, tier+":"+page.ID+":"+string(mb.MediaKind()))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"free:p1:images", "premium:p2:videos"}, seen)
}

func TestContentVersions_CloneIsDeep(t *testing.T) {
	var cv ContentVersions
	require.NoError(t, json.Unmarshal([]byte(sampleContent), &cv))

	clone, err := cv.Clone()
	require.NoError(t, err)

	require.NoError(t, clone.WalkMedia(func(_ string, _ *Page, mb MediaBlock) error {
		mb.SetMediaURL("https://storage.example.com/rewritten")
		return nil
	}))

	img := cv.Free.Pages[0].Blocks[1].(*ImageBlock)
	assert.Equal(t, "blob:http://localhost/abc", img.URL)
}

func TestContentVersions_Tier(t *testing.T) {
	var cv ContentVersions
	tier, err := cv.Tier("Premium")
	require.NoError(t, err)
	assert.Same(t, &cv.Premium, tier)

	_, err = cv.Tier("gold")
	assert.Error(t, err)
}
