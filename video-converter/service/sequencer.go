package service

import (
	"fmt"

	"blog_to_video/video-converter/models"
)

// SequenceCommandType names an index-based grouping command
type SequenceCommandType string

const (
	CreateSingleImageSingleText     SequenceCommandType = "createSingleImageSingleText"
	CreateSingleImageMultipleText   SequenceCommandType = "createSingleImageMultipleText"
	CreateMultipleImageSingleText   SequenceCommandType = "createMultipleImageSingleText"
	CreateMultipleImageMultipleText SequenceCommandType = "createMultipleImageMultipleText"
)

// SequenceCommand groups blocks of a flat document, by index, into one
// composite block.
type SequenceCommand struct {
	Type               SequenceCommandType `json:"type"`
	TargetImageIndex   *int                `json:"targetImageIndex,omitempty"`
	TargetTextIndex    *int                `json:"targetTextIndex,omitempty"`
	TargetImageIndexes []int               `json:"targetImageIndexes,omitempty"`
	TargetTextIndexes  []int               `json:"targetTextIndexes,omitempty"`
}

// Sequencer replays sequence commands against a flat document
type Sequencer struct {
	SecondsPerCharacter float64
}

func NewSequencer(secondsPerCharacter float64) *Sequencer {
	if secondsPerCharacter <= 0 {
		secondsPerCharacter = DefaultSecondsPerCharacter
	}
	return &Sequencer{SecondsPerCharacter: secondsPerCharacter}
}

// Apply returns a document whose blocks are the command results, in
// command order.
func (s *Sequencer) Apply(doc models.ContentDocument, commands []SequenceCommand) (models.ContentDocument, error) {
	out := models.ContentDocument{Title: doc.Title}

	for i, cmd := range commands {
		block, err := s.apply(doc, cmd)
		if err != nil {
			return models.ContentDocument{}, fmt.Errorf("command %d (%s): %w", i, cmd.Type, err)
		}
		out.Blocks = append(out.Blocks, block)
	}
	return out, nil
}

func (s *Sequencer) apply(doc models.ContentDocument, cmd SequenceCommand) (models.Block, error) {
	var imageIdx, textIdx []int
	var blockType models.BlockType

	switch cmd.Type {
	case CreateSingleImageSingleText:
		if cmd.TargetImageIndex == nil || cmd.TargetTextIndex == nil {
			return models.Block{}, fmt.Errorf("%w: missing target index", ErrBlockIndex)
		}
		imageIdx, textIdx = []int{*cmd.TargetImageIndex}, []int{*cmd.TargetTextIndex}
		blockType = models.BlockSingleImageAndSingleText
	case CreateSingleImageMultipleText:
		if cmd.TargetImageIndex == nil {
			return models.Block{}, fmt.Errorf("%w: missing target image index", ErrBlockIndex)
		}
		imageIdx, textIdx = []int{*cmd.TargetImageIndex}, cmd.TargetTextIndexes
		blockType = models.BlockSingleImageAndMultipleText
	case CreateMultipleImageSingleText:
		if cmd.TargetTextIndex == nil {
			return models.Block{}, fmt.Errorf("%w: missing target text index", ErrBlockIndex)
		}
		imageIdx, textIdx = cmd.TargetImageIndexes, []int{*cmd.TargetTextIndex}
		blockType = models.BlockMultipleImageAndSingleText
	case CreateMultipleImageMultipleText:
		imageIdx, textIdx = cmd.TargetImageIndexes, cmd.TargetTextIndexes
		blockType = models.BlockMultipleImageAndMultipleText
	default:
		return models.Block{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	images, err := pick(doc.Blocks, imageIdx, models.BlockImage)
	if err != nil {
		return models.Block{}, err
	}
	texts, err := pick(doc.Blocks, textIdx, models.BlockText)
	if err != nil {
		return models.Block{}, err
	}

	var total float64
	for i := range texts {
		texts[i].Duration = ReadingDuration(texts[i].Text, s.SecondsPerCharacter)
		total += texts[i].Duration
	}
	for i := range images {
		images[i].Duration = total / float64(len(images))
	}

	block := models.Block{Type: blockType, Duration: total}
	switch blockType {
	case models.BlockSingleImageAndSingleText:
		block.ImageBlock, block.TextBlock = &images[0], &texts[0]
	case models.BlockSingleImageAndMultipleText:
		block.ImageBlock, block.TextBlocks = &images[0], texts
	case models.BlockMultipleImageAndSingleText:
		block.ImageBlocks, block.TextBlock = images, &texts[0]
	case models.BlockMultipleImageAndMultipleText:
		block.ImageBlocks, block.TextBlocks = images, texts
	}
	return block, nil
}

// pick copies the blocks at indexes, checking bounds and type
func pick(blocks []models.Block, indexes []int, want models.BlockType) ([]models.Block, error) {
	picked := make([]models.Block, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(blocks) {
			return nil, fmt.Errorf("%w: %d out of range [0,%d)", ErrBlockIndex, idx, len(blocks))
		}
		if blocks[idx].Type != want {
			return nil, fmt.Errorf("%w: block %d is %q, want %q", ErrBlockIndex, idx, blocks[idx].Type, want)
		}
		picked = append(picked, blocks[idx])
	}
	return picked, nil
}
