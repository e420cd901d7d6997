package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownBlockType = errors.New("unknown block type")

type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockImage     BlockType = "image"
	BlockVideo     BlockType = "video"
	BlockQuiz      BlockType = "quiz"
	BlockCode      BlockType = "code"
	BlockList      BlockType = "list"
	BlockCallout   BlockType = "callout"
	BlockDivider   BlockType = "divider"
	BlockEmbed     BlockType = "embed"
)

type MediaKind string

const (
	MediaImage MediaKind = "images"
	MediaVideo MediaKind = "videos"
)

// Block 课程页面中的一个内容单元
type Block interface {
	BlockType() BlockType
}

// MediaBlock 引用了媒体文件的内容块（图片、视频）
type MediaBlock interface {
	Block
	MediaURL() string
	SetMediaURL(url string)
	MediaKind() MediaKind
}

type HeadingBlock struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type ParagraphBlock struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ImageBlock struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type VideoBlock struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Caption  string  `json:"caption,omitempty"`
	Poster   string  `json:"poster,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type QuizBlock struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

type CodeBlock struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type ListBlock struct {
	ID      string   `json:"id"`
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

type CalloutBlock struct {
	ID      string `json:"id"`
	Variant string `json:"variant"` // info | tip | warning
	Title   string `json:"title,omitempty"`
	Text    string `json:"text"`
}

type DividerBlock struct {
	ID string `json:"id"`
}

type EmbedBlock struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Provider string `json:"provider,omitempty"`
}

func (HeadingBlock) BlockType() BlockType   { return BlockHeading }
func (ParagraphBlock) BlockType() BlockType { return BlockParagraph }
func (ImageBlock) BlockType() BlockType     { return BlockImage }
func (VideoBlock) BlockType() BlockType     { return BlockVideo }
func (QuizBlock) BlockType() BlockType      { return BlockQuiz }
func (CodeBlock) BlockType() BlockType      { return BlockCode }
func (ListBlock) BlockType() BlockType      { return BlockList }
func (CalloutBlock) BlockType() BlockType   { return BlockCallout }
func (DividerBlock) BlockType() BlockType   { return BlockDivider }
func (EmbedBlock) BlockType() BlockType     { return BlockEmbed }

func (b *ImageBlock) MediaURL() string       { return b.URL }
func (b *ImageBlock) SetMediaURL(url string) { b.URL = url }
func (b *ImageBlock) MediaKind() MediaKind   { return MediaImage }

func (b *VideoBlock) MediaURL() string       { return b.URL }
func (b *VideoBlock) SetMediaURL(url string) { b.URL = url }
func (b *VideoBlock) MediaKind() MediaKind   { return MediaVideo }

func newBlock(t BlockType) (Block, error) {
	switch t {
	case BlockHeading:
		return &HeadingBlock{}, nil
	case BlockParagraph:
		return &ParagraphBlock{}, nil
	case BlockImage:
		return &ImageBlock{}, nil
	case BlockVideo:
		return &VideoBlock{}, nil
	case BlockQuiz:
		return &QuizBlock{}, nil
	case BlockCode:
		return &CodeBlock{}, nil
	case BlockList:
		return &ListBlock{}, nil
	case BlockCallout:
		return &CalloutBlock{}, nil
	case BlockDivider:
		return &DividerBlock{}, nil
	case BlockEmbed:
		return &EmbedBlock{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// Blocks 以 {"type": "...", ...} 的形式编码
type Blocks []Block

func (bs Blocks) MarshalJSON() ([]byte, error) {
	out := make([]map[string]json.RawMessage, 0, len(bs))
	for _, b := range bs {
		if b == nil {
			continue
		}
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		typ, _ := json.Marshal(b.BlockType())
		fields["type"] = typ
		out = append(out, fields)
	}
	return json.Marshal(out)
}

func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	blocks := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		var head struct {
			Type BlockType `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		b, err := newBlock(head.Type)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if err := json.Unmarshal(raw, b); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	*bs = blocks
	return nil
}

type Page struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Blocks Blocks `json:"blocks"`
}

type ContentTier struct {
	Pages []Page `json:"pages"`
}

const (
	TierFree    = "free"
	TierPremium = "premium"
)

// ContentVersions 免费版与付费版两套内容
type ContentVersions struct {
	Free    ContentTier `json:"free"`
	Premium ContentTier `json:"premium"`
}

func (cv *ContentVersions) Tier(name string) (*ContentTier, error) {
	switch strings.ToLower(name) {
	case TierFree:
		return &cv.Free, nil
	case TierPremium:
		return &cv.Premium, nil
	}
	return nil, fmt.Errorf("unknown content tier %q", name)
}

// Clone 深拷贝，发布时不能改动草稿本身
func (cv ContentVersions) Clone() (ContentVersions, error) {
	var out ContentVersions
	raw, err := json.Marshal(cv)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// WalkMedia 按 free、premium 的顺序依次访问每个媒体块
func (cv *ContentVersions) WalkMedia(fn func(tier string, page *Page, mb MediaBlock) error) error {
	tiers := []struct {
		name string
		tier *ContentTier
	}{{TierFree, &cv.Free}, {TierPremium, &cv.Premium}}

	for _, t := range tiers {
		for i := range t.tier.Pages {
			page := &t.tier.Pages[i]
			for _, b := range page.Blocks {
				mb, ok := b.(MediaBlock)
				if !ok {
					continue
				}
				if err := fn(t.name, page, mb); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (cv *ContentVersions) BlockCount() int {
	n := 0
	for _, p := range cv.Free.Pages {
		n += len(p.Blocks)
	}
	for _, p := range cv.Premium.Pages {
		n += len(p.Blocks)
	}
	return n
}
