package visuals

import (
	"fmt"
	"strings"
)

const previewLength = 150

var sceneRoles = map[int]string{
	1: "opening scene showing character introduction and initial setting",
	2: "world building scene establishing the environment and conflict",
	3: "rising action scene with developing tension and conflict",
	4: "climactic scene at peak tension with main confrontation",
	5: "resolution scene concluding the story peacefully",
}

// StyleSuffix is appended to every model-derived description.
func StyleSuffix(c Context) string {
	return fmt.Sprintf(
		". Professional digital artwork, %s genre aesthetic, %s mood, cinematic composition, rich colors, atmospheric lighting, detailed illustration",
		orDefault(c.Genre, "general"),
		orDefault(c.Tone, "balanced"),
	)
}

// Fallback builds a deterministic description from the scene position and text.
func Fallback(in SceneInput) string {
	return fmt.Sprintf(
		"Scene %d from %s story: %s. %s. Style: %s mood, detailed digital artwork, professional book illustration, cinematic composition, rich colors",
		in.Ordinal,
		orDefault(in.Story.Genre, "fiction"),
		preview(in.Text, previewLength),
		Role(in.Ordinal),
		orDefault(in.Story.Tone, "balanced"),
	)
}

// Role names the narrative function of the scene at ordinal.
func Role(ordinal int) string {
	return sceneRoles[ordinal]
}

func preview(text string, limit int) string {
	runes := []rune(Clean(text))
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
