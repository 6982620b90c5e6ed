package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/smartfill/internal/accessibility"
	"github.com/kalambet/smartfill/internal/config"
	"github.com/kalambet/smartfill/internal/fill"
	"github.com/kalambet/smartfill/internal/llm"
	"github.com/kalambet/smartfill/internal/profile"
)

var openConfig = config.Open

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// splitKey turns "section.key" into its parts; the key may itself contain
// dots ("work_experience.0.title").
func splitKey(s string) (string, string) {
	section, key, _ := strings.Cut(s, ".")
	return section, key
}

// --- trigger ---

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Fill the focused field of the frontmost application",
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetDuration("delay")
		if delay > 0 {
			printStep("Switch to the target field, filling in %s", delay)
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(delay):
			}
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.fills.Trigger(cmd.Context())
		switch {
		case errors.Is(err, fill.ErrSuppressed):
			printWarning("Skipped %q: sensitive field", out.Snapshot.Label)
			return nil
		case errors.Is(err, accessibility.ErrPermissionDenied):
			printError("Accessibility permission is required. Grant it in System Settings > Privacy & Security > Accessibility.")
			return errReported
		case errors.Is(err, fill.ErrGeneration):
			printError("%s", out.Content.Text)
			return errReported
		case err != nil:
			return err
		}
		printSuccess("Filled %q as %s (%d chars, %s)", out.Snapshot.Label, out.Classification.FieldType,
			len([]rune(out.Content.Text)), out.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	triggerCmd.Flags().Duration("delay", 0, "wait before reading the focused field")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the active profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary, _ := cmd.Flags().GetBool("summary")
		if summary {
			s, err := a.profiles.Summary()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}
		p, err := a.profiles.Profile()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), p.Data)
	},
}

var profileGetCmd = &cobra.Command{
	Use:   "get <section>[.<key>]",
	Short: "Print a section or a single value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		section, key := splitKey(args[0])
		v, ok, err := a.profiles.Get(section, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s not found in profile", args[0])
		}
		if s, isString := v.(string); isString {
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), v)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <section>.<key> <value>",
	Short: "Set a profile value; list values are comma separated",
	Long: `Set a profile value. List sections take an index:

  smartfill profile set basic.email ada@example.com
  smartfill profile set skills.languages "Go, Rust"
  smartfill profile set work_experience.0.title "Staff Engineer"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		section, key := splitKey(args[0])
		if err := a.profiles.Update(section, key, args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

var profileAddJobCmd = &cobra.Command{
	Use:   "add-job <company> <title>",
	Short: "Add a job as the most recent work experience",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		highlights, _ := cmd.Flags().GetStringSlice("highlight")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		job := profile.Job{Company: args[0], Title: args[1], Period: period, Highlights: highlights}
		if err := a.profiles.AddJob(job); err != nil {
			return err
		}
		printSuccess("Added %s at %s", args[1], args[0])
		return nil
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the active profile as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.profiles.Profile()
		if err != nil {
			return err
		}
		b, err := profile.ExportYAML(p.Data)
		if err != nil {
			return err
		}
		if output == "" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		if err := os.WriteFile(output, b, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		printSuccess("Exported profile %q to %s", a.profiles.ID(), output)
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the active profile with a YAML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		d, err := profile.ImportYAML(src)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.profiles.Replace(d); err != nil {
			return err
		}
		printSuccess("Imported %s into profile %q", args[0], a.profiles.ID())
		return nil
	},
}

var profileImportPDFCmd = &cobra.Command{
	Use:   "import-pdf <resume.pdf>",
	Short: "Fill empty profile fields from a resume PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Extracting %s with %s", args[0], a.backend.gateway().Name())
		if _, err := a.profiles.ImportResume(cmd.Context(), a.backend, args[0]); err != nil {
			var le *llm.Error
			if errors.As(err, &le) {
				printError("%s", llm.Message(err))
				return errReported
			}
			return err
		}
		printSuccess("Profile %q updated from resume", a.profiles.ID())
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.store.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			marker := "  "
			if id == a.profiles.ID() {
				marker = "* "
			}
			fmt.Fprintln(cmd.OutOrStdout(), marker+id)
		}
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a profile the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.Set("active_profile", "", args[0], true); err != nil {
			return err
		}
		printSuccess("Active profile is now %q", args[0])
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			return fmt.Errorf("use --confirm to delete profile %q", args[0])
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Delete(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted profile %q", args[0])
		return nil
	},
}

func init() {
	profileShowCmd.Flags().Bool("summary", false, "print the plain-text summary used in prompts")
	profileAddJobCmd.Flags().String("period", "", "employment period, e.g. 2021-2024")
	profileAddJobCmd.Flags().StringSlice("highlight", nil, "highlight (repeatable)")
	profileExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	profileDeleteCmd.Flags().Bool("confirm", false, "confirm deletion")

	profileCmd.AddCommand(profileShowCmd, profileGetCmd, profileSetCmd, profileAddJobCmd,
		profileExportCmd, profileImportCmd, profileImportPDFCmd, profileListCmd, profileUseCmd, profileDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		cfg := store.Config()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", colorize(colorBold, "api key"), config.APIKeyHint(cfg.LLM.Provider))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <section>[.<key>]",
	Short: "Print a section or a single value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		section, key := splitKey(args[0])
		v, err := store.Get(section, key)
		if err != nil {
			return err
		}
		if _, isMap := v.(map[string]any); isMap {
			return writeJSON(cmd.OutOrStdout(), v)
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if key == "llm.api_key" {
			return fmt.Errorf("use 'smartfill config set-key' to store the API key")
		}
		store, err := openConfig()
		if err != nil {
			return err
		}
		section, k := splitKey(key)
		if err := store.Set(section, k, value, true); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store the API key for the current provider (reads stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 4096))
			if err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			value = string(b)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return fmt.Errorf("empty API key; use 'smartfill config clear-key' to remove it")
		}

		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.Set("llm", "api_key", value, true); err != nil {
			return err
		}
		printSuccess("API key stored for %s", store.Config().LLM.Provider)
		return nil
	},
}

var configClearKeyCmd = &cobra.Command{
	Use:   "clear-key",
	Short: "Remove the API key of the current provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.Set("llm", "api_key", "", true); err != nil {
			return err
		}
		printSuccess("API key removed for %s", store.Config().LLM.Provider)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration directory",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.Dir())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configSetKeyCmd, configClearKeyCmd, configPathCmd)
}

// --- llm ---

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the completion backend",
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		g := a.backend.gateway()
		printStep("Testing %s", g.Name())
		msg, err := g.Probe(cmd.Context())
		if err != nil {
			var le *llm.Error
			if errors.As(err, &le) {
				printError("%s", llm.Message(err))
			} else {
				printError("%v", err)
			}
			return errReported
		}
		printSuccess("%s", msg)
		return nil
	},
}

var llmModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available in the local Ollama instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		cfg := store.Config().LLM
		models, err := llm.NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel).ListModels(cmd.Context())
		if err != nil {
			printError("%s", llm.Message(err))
			return errReported
		}
		for _, m := range models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

func init() {
	llmCmd.AddCommand(llmTestCmd, llmModelsCmd)
}

// --- templates ---

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage saved text templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		cfg := store.Config()
		for _, name := range config.TemplateNames(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", colorize(colorBold, name), cfg.Templates[name])
		}
		return nil
	},
}

var templatesSetCmd = &cobra.Command{
	Use:   "set <name> <text>",
	Short: "Create or replace a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.Set("templates", args[0], args[1], true); err != nil {
			return err
		}
		printSuccess("Saved template %q", args[0])
		return nil
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.DeleteTemplate(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted template %q", args[0])
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd, templatesSetCmd, templatesDeleteCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent fills (metadata only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		stats, _ := cmd.Flags().GetBool("stats")
		purge, _ := cmd.Flags().GetDuration("purge-older-than")
		id, _ := cmd.Flags().GetString("id")

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.history == nil {
			return fmt.Errorf("fill history is disabled (privacy.keep_history) or unavailable")
		}

		out := cmd.OutOrStdout()
		switch {
		case id != "":
			f, err := a.history.GetFill(id)
			if err != nil {
				return fmt.Errorf("history entry %s: %w", id, err)
			}
			return writeJSON(out, f)
		case purge > 0:
			n, err := a.history.PurgeBefore(time.Now().Add(-purge))
			if err != nil {
				return err
			}
			printSuccess("Removed %d entries", n)
			return nil
		case stats:
			counts, err := a.history.FillStats()
			if err != nil {
				return err
			}
			if versions, err := a.history.AppliedMigrations(); err == nil && len(versions) > 0 {
				printStatus("Schema version", "%d", versions[len(versions)-1])
			}
			return writeJSON(out, counts)
		}

		fills, err := a.history.RecentFills(limit)
		if err != nil {
			return err
		}
		for _, f := range fills {
			line := fmt.Sprintf("%s  %s  %-10s %-9s %-22s %q (%s, %dms)",
				f.ID, f.CreatedAt.Local().Format("2006-01-02 15:04:05"), f.Outcome, f.Source,
				f.FieldType, f.FieldLabel, f.AppName, f.DurationMs)
			if f.Error != "" {
				line += "  " + colorize(colorRed, f.Error)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of entries to show")
	historyCmd.Flags().Bool("stats", false, "show counts per outcome")
	historyCmd.Flags().Duration("purge-older-than", 0, "delete entries older than this duration")
	historyCmd.Flags().String("id", "", "show one entry as JSON")
}
