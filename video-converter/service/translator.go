package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"blog_to_video/video-converter/models"
)

const (
	DefaultBlockDuration       = 3.0
	MinCutDuration             = 1.0
	DefaultSecondsPerCharacter = 0.2
)

var markupTags = regexp.MustCompile(`<[^>]*>?`)

// CountSpokenCharacters counts the runes that drive a text's reading time:
// markup tags, newlines and whitespace are ignored.
func CountSpokenCharacters(text string) int {
	stripped := markupTags.ReplaceAllString(text, "")
	stripped = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, stripped)
	return utf8.RuneCountInString(stripped)
}

// ReadingDuration is round(characters * secondsPerCharacter)
func ReadingDuration(text string, secondsPerCharacter float64) float64 {
	return math.Round(float64(CountSpokenCharacters(text)) * secondsPerCharacter)
}

// Translator turns a content document into a job of scenes and cuts
type Translator struct {
	SecondsPerCharacter float64
	TitleAsHeader       bool

	newID func() string
	now   func() time.Time
}

func NewTranslator(secondsPerCharacter float64, titleAsHeader bool) *Translator {
	if secondsPerCharacter <= 0 {
		secondsPerCharacter = DefaultSecondsPerCharacter
	}
	return &Translator{
		SecondsPerCharacter: secondsPerCharacter,
		TitleAsHeader:       titleAsHeader,
		newID:               uuid.NewString,
		now:                 time.Now,
	}
}

// Translate builds a pending job with one scene per block. Blocks that
// yield no cuts are skipped.
func (t *Translator) Translate(doc models.ContentDocument) (*models.Job, error) {
	job := &models.Job{
		ID:        t.newID(),
		Title:     doc.Title,
		CreatedAt: t.now(),
		Status:    models.JobStatusPending,
	}

	for i, block := range doc.Blocks {
		sceneID := t.newID()
		cuts, err := t.cutsForBlock(sceneID, block)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if len(cuts) == 0 {
			continue
		}

		if t.TitleAsHeader && doc.Title != "" {
			for j := range cuts {
				cuts[j].Header = doc.Title
			}
		}

		job.Scenes = append(job.Scenes, models.Scene{
			ID:    sceneID,
			JobID: job.ID,
			Cuts:  cuts,
		})
	}

	return job, nil
}

func (t *Translator) cutsForBlock(sceneID string, block models.Block) ([]models.Cut, error) {
	switch block.Type {
	case models.BlockText:
		if strings.TrimSpace(block.Text) == "" {
			return nil, nil
		}
		return []models.Cut{t.newCut(sceneID, blockDuration(block), "", block.Text)}, nil

	case models.BlockImage:
		if block.Src == "" {
			return nil, nil
		}
		return []models.Cut{t.newCut(sceneID, blockDuration(block), block.Src, "")}, nil

	case models.BlockSingleImageAndSingleText, models.BlockSingleImageAndMultipleText,
		models.BlockMultipleImageAndSingleText, models.BlockMultipleImageAndMultipleText:
		return t.compositeCuts(sceneID, block)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, block.Type)
}

// compositeCuts expands an image/text group
func (t *Translator) compositeCuts(sceneID string, block models.Block) ([]models.Cut, error) {
	images := imageChildren(block)
	texts := textChildren(block)

	if len(images) == 0 && len(texts) == 0 {
		return nil, ErrEmptyBlock
	}

	textDurations := make([]float64, len(texts))
	var aggregate float64
	for i, text := range texts {
		textDurations[i] = t.textDuration(text)
		aggregate += textDurations[i]
	}
	if len(texts) == 0 {
		aggregate = blockDuration(block)
	}

	switch {
	case len(texts) == 0:
		// images only: split the block evenly
		return t.imageCuts(sceneID, images, aggregate, nil, nil), nil

	case len(images) <= 1:
		// one cut per text, all on the same image
		var src string
		if len(images) == 1 {
			src = images[0].Src
		}
		cuts := make([]models.Cut, len(texts))
		for i, text := range texts {
			cuts[i] = t.newCut(sceneID, math.Max(textDurations[i], MinCutDuration), src, text.Text)
		}
		return cuts, nil

	default:
		return t.imageCuts(sceneID, images, aggregate, texts, textDurations), nil
	}
}

// imageCuts gives each image an equal share of the aggregate and picks the
// caption whose time window contains the image's start. A zero aggregate
// falls back to MinCutDuration per image.
func (t *Translator) imageCuts(sceneID string, images []models.Block, aggregate float64, texts []models.Block, textDurations []float64) []models.Cut {
	share := aggregate / float64(len(images))
	if share <= 0 {
		share = MinCutDuration
	}

	cuts := make([]models.Cut, len(images))
	for i, image := range images {
		start := float64(i) * share
		caption := captionAt(start, texts, textDurations)
		cuts[i] = t.newCut(sceneID, share, image.Src, caption)
	}
	return cuts
}

// captionAt returns the first text whose [start,end) window contains at,
// or "" when no window does.
func captionAt(at float64, texts []models.Block, durations []float64) string {
	const epsilon = 1e-9

	var start float64
	for i, text := range texts {
		end := start + durations[i]
		if start <= at+epsilon && at+epsilon < end {
			return text.Text
		}
		start = end
	}
	return ""
}

// textDuration is the given duration or the reading duration, unclamped
func (t *Translator) textDuration(text models.Block) float64 {
	if text.Duration > 0 {
		return text.Duration
	}
	return ReadingDuration(text.Text, t.SecondsPerCharacter)
}

func (t *Translator) newCut(sceneID string, duration float64, imageURL, caption string) models.Cut {
	return models.Cut{
		ID:       t.newID(),
		SceneID:  sceneID,
		Duration: duration,
		ImageURL: imageURL,
		Subtitle: strings.TrimSpace(caption),
	}
}

func blockDuration(block models.Block) float64 {
	if block.Duration > 0 {
		return block.Duration
	}
	return DefaultBlockDuration
}

func imageChildren(block models.Block) []models.Block {
	var images []models.Block
	if block.ImageBlock != nil {
		images = append(images, *block.ImageBlock)
	}
	return append(images, block.ImageBlocks...)
}

func textChildren(block models.Block) []models.Block {
	var texts []models.Block
	if block.TextBlock != nil {
		texts = append(texts, *block.TextBlock)
	}
	return append(texts, block.TextBlocks...)
}
