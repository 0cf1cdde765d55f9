package models

import (
	"encoding/json"
	"fmt"
)

// BlockType tags a content block
type BlockType string

const (
	BlockText                         BlockType = "text"
	BlockImage                        BlockType = "image"
	BlockSingleImageAndSingleText     BlockType = "singleImageAndSingleText"
	BlockSingleImageAndMultipleText   BlockType = "singleImageAndMultipleText"
	BlockMultipleImageAndSingleText   BlockType = "multipleImageAndSingleText"
	BlockMultipleImageAndMultipleText BlockType = "multipleImageAndMultipleText"
)

// ContentDocument is the validated document handed over by the ingestion pipeline
type ContentDocument struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// Block is one typed entry of a content document.
// Text blocks carry Text, image blocks carry Src. Composite blocks carry their
// children in ImageBlock/ImageBlocks and TextBlock/TextBlocks.
type Block struct {
	Type     BlockType `json:"type"`
	Duration float64   `json:"duration"` // in seconds

	Text string `json:"-"`
	Src  string `json:"-"`

	ImageBlock  *Block  `json:"imageBlock,omitempty"`
	TextBlock   *Block  `json:"textBlock,omitempty"`
	ImageBlocks []Block `json:"imageBlocks,omitempty"`
	TextBlocks  []Block `json:"textBlocks,omitempty"`
}

type imageValue struct {
	Src string `json:"src"`
}

// blockAlias drops the methods so the default codec can be reused
type blockAlias Block

type blockWire struct {
	blockAlias
	Value json.RawMessage `json:"value,omitempty"`
}

// UnmarshalJSON decodes the polymorphic "value" field: a string for text
// blocks and {"src": ...} for image blocks.
func (b *Block) UnmarshalJSON(data []byte) error {
	var wire blockWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = Block(wire.blockAlias)

	if len(wire.Value) == 0 || string(wire.Value) == "null" {
		return nil
	}

	switch b.Type {
	case BlockText:
		if err := json.Unmarshal(wire.Value, &b.Text); err != nil {
			return fmt.Errorf("text block value: %w", err)
		}
	case BlockImage:
		var img imageValue
		if err := json.Unmarshal(wire.Value, &img); err != nil {
			return fmt.Errorf("image block value: %w", err)
		}
		b.Src = img.Src
	}
	return nil
}

// MarshalJSON writes the block back in the same wire shape it is read from
func (b Block) MarshalJSON() ([]byte, error) {
	wire := blockWire{blockAlias: blockAlias(b)}

	var err error
	switch b.Type {
	case BlockText:
		wire.Value, err = json.Marshal(b.Text)
	case BlockImage:
		wire.Value, err = json.Marshal(imageValue{Src: b.Src})
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// NewTextBlock creates a plain text block
func NewTextBlock(text string, duration float64) Block {
	return Block{Type: BlockText, Text: text, Duration: duration}
}

// NewImageBlock creates a plain image block
func NewImageBlock(src string, duration float64) Block {
	return Block{Type: BlockImage, Src: src, Duration: duration}
}
