package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"storyweaver/pkg/config"
)

const (
	envPath    = ".env"
	configPath = "config.yaml"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var envOrder = []string{
	"GOOGLE_CLOUD_PROJECT",
	"GEMINI_API_KEY",
	"GROQ_API_KEY",
	"APP_ENV",
	"PORT",
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Storyweaver",
	Long:  `Configure API keys, optionally store them in Google Secret Manager, and write config.yaml and .env.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("📖 Storyweaver Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Writing config", writeDefaultConfig},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func writeDefaultConfig() error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println(infoStyle.Render("Kept existing " + configPath))
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.Save(config.Default(), configPath); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created " + configPath))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(envPath); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureAPIKeys(env); err != nil {
		return err
	}

	if err := configureGCP(env); err != nil {
		return err
	}

	if err := configureServer(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureAPIKeys(env map[string]string) error {
	var geminiKey, groqKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Text and Imagen image generation · https://aistudio.google.com/apikey").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey),
			huh.NewInput().
				Title("Groq API Key (optional)").
				Description("Alternative text provider · https://console.groq.com/keys").
				EchoMode(huh.EchoModePassword).
				Value(&groqKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	geminiKey = strings.TrimSpace(geminiKey)
	groqKey = strings.TrimSpace(groqKey)
	if geminiKey == "" && groqKey == "" {
		return errors.New("at least one of the Gemini or Groq API keys is required")
	}
	if geminiKey == "" {
		fmt.Println(warnStyle.Render("No Gemini key: Imagen is disabled and images come from URL providers"))
	}

	env["GEMINI_API_KEY"] = geminiKey
	env["GROQ_API_KEY"] = groqKey
	return nil
}

func configureGCP(env map[string]string) error {
	var useSecrets bool
	if err := huh.NewConfirm().
		Title("Store API keys in Google Secret Manager?").
		Description("Keys are then read at startup instead of from .env").
		Value(&useSecrets).
		Run(); err != nil {
		return err
	}

	if !useSecrets {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := getGCPProject()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}
	env["GOOGLE_CLOUD_PROJECT"] = project

	if err := runWithSpinner("Enabling Secret Manager", func() error {
		return runSetupCmd(nil, "gcloud", "services", "enable", "secretmanager.googleapis.com", "--project", project)
	}); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
		return nil
	}

	for _, name := range []string{"GEMINI_API_KEY", "GROQ_API_KEY"} {
		value := env[name]
		if value == "" {
			continue
		}
		err := runWithSpinner("Storing "+name, func() error {
			return storeSecret(project, name, value)
		})
		if err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Keeping %s in .env: %v", name, err)))
			continue
		}
		delete(env, name)
	}

	return nil
}

func getGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Enter project ID manually", "manual"),
	}
	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	if choice != "manual" {
		return choice, nil
	}

	var projectID string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(projectID), nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// storeSecret creates the secret if needed and adds value as a new version.
func storeSecret(project, name, value string) error {
	if err := runSetupCmd(nil, "gcloud", "secrets", "describe", name, "--project", project); err != nil {
		if err := runSetupCmd(nil, "gcloud", "secrets", "create", name, "--replication-policy", "automatic", "--project", project); err != nil {
			return err
		}
	}
	return runSetupCmd(strings.NewReader(value), "gcloud", "secrets", "versions", "add", name, "--data-file=-", "--project", project)
}

func configureServer(env map[string]string) error {
	appEnv := "production"
	port := "3000"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Environment").
				Description("Development exposes error details in API responses").
				Options(huh.NewOptions("production", "development")...).
				Value(&appEnv),
			huh.NewInput().
				Title("Port").
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	env["APP_ENV"] = appEnv
	env["PORT"] = strings.TrimSpace(port)
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(envPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := renderEnv(f, env); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func renderEnv(w io.Writer, env map[string]string) error {
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			if _, err := fmt.Fprintf(w, "%s=%s\n", key, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Review config.yaml (models, image providers, timeouts)")
	fmt.Println("  2. Run: storyweaver generate -i \"your idea\"")
	fmt.Println("  3. Or serve the API: storyweaver serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(stdin io.Reader, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
