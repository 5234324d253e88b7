// Package segment splits raw model output into a fixed number of scene bodies.
package segment

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	SceneCount  = 5
	Placeholder = "This scene continues the story..."
)

var (
	delimiterPattern = regexp.MustCompile(`---SCENE \d+---`)
	paragraphPattern = regexp.MustCompile(`\n[ \t\r]*\n`)
)

// Split returns exactly target non-empty scene bodies taken from raw.
// Delimited fragments are preferred; otherwise paragraphs are grouped
// into target contiguous runs and the tail is padded with Placeholder.
func Split(raw string, target int) []string {
	if target <= 0 {
		return nil
	}

	scenes := byDelimiter(raw)
	if len(scenes) >= target {
		if len(scenes) > target {
			slog.Debug("Dropping extra scenes", "found", len(scenes), "target", target)
		}
		scenes = scenes[:target]
	} else {
		slog.Debug("Scene delimiters missing, grouping paragraphs", "found", len(scenes), "target", target)
		scenes = byParagraph(raw, target)
	}

	for len(scenes) < target {
		scenes = append(scenes, Placeholder)
	}
	scenes = scenes[:target]

	for i, scene := range scenes {
		scene = strings.TrimSpace(scene)
		if scene == "" {
			scene = Placeholder
		}
		scenes[i] = scene
	}
	return scenes
}

func byDelimiter(raw string) []string {
	parts := delimiterPattern.Split(raw, -1)
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		fragments = append(fragments, part)
	}
	return fragments
}

// Paragraphs returns the non-empty blank-line separated paragraphs of raw,
// with any scene delimiters removed.
func Paragraphs(raw string) []string {
	parts := paragraphPattern.Split(raw, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(delimiterPattern.ReplaceAllString(part, ""))
		if part == "" {
			continue
		}
		paragraphs = append(paragraphs, part)
	}
	return paragraphs
}

func byParagraph(raw string, target int) []string {
	paragraphs := Paragraphs(raw)
	if len(paragraphs) == 0 {
		return nil
	}

	size := (len(paragraphs) + target - 1) / target
	groups := make([]string, 0, target)
	for start := 0; start < len(paragraphs) && len(groups) < target; start += size {
		end := min(start+size, len(paragraphs))
		groups = append(groups, strings.Join(paragraphs[start:end], "\n\n"))
	}
	return groups
}
