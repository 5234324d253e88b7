package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"storyweaver/internal/app"
	"storyweaver/pkg/config"
)

var (
	imagePrompt  string
	imageSceneID string
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Acquire an image for a visual prompt",
	Long:  `Run the image provider chain for a single prompt and print the result as JSON.`,
	RunE:  runImage,
}

func init() {
	imageCmd.Flags().StringVarP(&imagePrompt, "prompt", "p", "", "Visual prompt")
	imageCmd.Flags().StringVarP(&imageSceneID, "scene", "s", "", "Scene id echoed in the result")
	_ = imageCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	service, err := app.BuildImageService(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := app.NewPipeline(service).AcquireImage(ctx, app.ImageRequest{Prompt: imagePrompt, SceneID: imageSceneID})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
