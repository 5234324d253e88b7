package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storyweaver/internal/app"
	"storyweaver/internal/story"
)

var (
	genIdea     string
	genGenre    string
	genTone     string
	genAudience string
	genImages   bool
	genJSON     bool
)

var (
	genres    = []string{"Fantasy", "Sci-Fi", "Mystery", "Adventure", "Romance", "Horror", "Comedy", "Drama", "Thriller", "Historical"}
	tones     = []string{"Lighthearted", "Dark", "Epic", "Mysterious", "Romantic", "Comedic", "Dramatic", "Suspenseful", "Inspiring", "Melancholic"}
	audiences = []string{"Children (5-8)", "Kids (9-12)", "Teens (13-17)", "Young Adults (18-25)", "Adults (25+)", "All Ages"}
)

var (
	sceneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	textStyle   = lipgloss.NewStyle().Width(80)
	promptStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")).Width(80)
)

const maxShownURL = 80

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a story from an idea",
	Long: `Generate a five-scene story with visual prompts for every scene.
Without --idea an interactive form asks for the idea and story settings.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genIdea, "idea", "i", "", "Story idea")
	generateCmd.Flags().StringVarP(&genGenre, "genre", "g", "", "Story genre")
	generateCmd.Flags().StringVarP(&genTone, "tone", "t", "", "Story tone")
	generateCmd.Flags().StringVarP(&genAudience, "audience", "a", "", "Target audience")
	generateCmd.Flags().BoolVar(&genImages, "images", false, "Acquire an image for every scene")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "Print the story as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req := story.Request{
		Idea:     genIdea,
		Settings: &story.Settings{Genre: genGenre, Tone: genTone, Audience: genAudience},
	}
	if strings.TrimSpace(req.Idea) == "" {
		if genJSON {
			return errors.New("please provide --idea when using --json")
		}
		if err := askStoryRequest(&req); err != nil {
			return err
		}
	}

	_, pipeline, err := loadPipeline(ctx)
	if err != nil {
		return err
	}

	var opts []app.GenerateOption
	if genImages {
		opts = append(opts, app.WithEagerImages())
	}

	var result *story.Story
	generate := func() error {
		var genErr error
		result, genErr = pipeline.GenerateStory(ctx, req, opts...)
		return genErr
	}

	if genJSON {
		if err := generate(); err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if err := runWithSpinner("Writing your story", generate); err != nil {
		return err
	}
	fmt.Print(renderStory(result))
	return nil
}

func askStoryRequest(req *story.Request) error {
	settings := req.Settings
	if settings.Genre == "" {
		settings.Genre = genres[0]
	}
	if settings.Tone == "" {
		settings.Tone = tones[2]
	}
	if settings.Audience == "" {
		settings.Audience = audiences[len(audiences)-1]
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Story idea").
				Placeholder("A lighthouse keeper discovers a glowing shell").
				Value(&req.Idea).
				Validate(required("Story idea")),
			huh.NewSelect[string]().
				Title("Genre").
				Options(huh.NewOptions(genres...)...).
				Value(&settings.Genre),
			huh.NewSelect[string]().
				Title("Tone").
				Options(huh.NewOptions(tones...)...).
				Value(&settings.Tone),
			huh.NewSelect[string]().
				Title("Audience").
				Options(huh.NewOptions(audiences...)...).
				Value(&settings.Audience),
		),
	)
	return form.Run()
}

func renderStory(s *story.Story) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(s.Idea))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s · %s · %s", s.Settings.Genre, s.Settings.Tone, s.Settings.Audience)))
	b.WriteString("\n\n")

	for _, scene := range s.Scenes {
		b.WriteString(sceneStyle.Render(scene.Title))
		b.WriteString("\n")
		b.WriteString(textStyle.Render(scene.Text))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("Visual: " + scene.ImagePrompt))
		b.WriteString("\n")
		if scene.Image != nil {
			line := fmt.Sprintf("Image (%s): %s", scene.Image.Provider, shortenURL(scene.Image.URL))
			if scene.Image.IsFallback {
				b.WriteString(warnStyle.Render(line))
			} else {
				b.WriteString(successStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func shortenURL(u string) string {
	if len(u) <= maxShownURL {
		return u
	}
	return u[:maxShownURL] + "..."
}
