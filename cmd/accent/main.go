package main

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"accent-go/internal/app"
	"accent-go/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'accent config init' first?): %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts for a passphrase without echo when attached to a
// terminal, falling back to a plain line read otherwise.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(data), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return line, nil
}

// confirmDeletes enforces the delete guard preference.
func confirmDeletes(a *app.App, force bool) error {
	if force {
		return nil
	}
	p, err := a.Prefs().Load()
	if err != nil {
		return err
	}
	if !p.DeleteEnabled {
		return fmt.Errorf("deleting is disabled; enable with 'accent prefs set delete_enabled true' or pass --force")
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func formatMs(ms int64) string {
	return fmt.Sprintf("%d:%02d", ms/60000, ms%60000/1000)
}

var rootCmd = &cobra.Command{
	Use:   "accent",
	Short: "Personal accent practice trainer",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Audio Dir: %s\n", cfg.AudioDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s (%s)\n", cfg.Database.Type, cfg.Database.DataDir)
		return nil
	},
}

// lesson command
var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Manage lessons",
}

var lessonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListLessons")
		if err != nil {
			return err
		}
		defer a.Close()

		lessons, err := a.Service().Lessons()
		if err != nil {
			return err
		}
		if len(lessons) == 0 {
			fmt.Println("No lessons. Run 'accent seed' to install the bundled ones.")
			return nil
		}

		title := color.New(color.Bold)
		builtin := color.New(color.FgCyan)
		for _, l := range lessons {
			tag := ""
			if l.IsBuiltIn {
				tag = builtin.Sprint("  [built-in]")
			}
			fmt.Printf("#%-4d %s  (%s, %s)%s\n", l.ID, title.Sprint(l.Title), l.Language, l.Accent, tag)
		}
		return nil
	},
}

var lessonShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a lesson's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("ShowLesson")
		if err != nil {
			return err
		}
		defer a.Close()

		lesson, err := a.Service().GetLesson(id)
		if err != nil {
			return err
		}
		if lesson == nil {
			return fmt.Errorf("lesson %d not found", id)
		}

		recordings, err := a.Service().RecordingsForLesson(id)
		if err != nil {
			return err
		}

		fmt.Printf("#%d %s (%s, %s)\n", lesson.ID, lesson.Title, lesson.Language, lesson.Accent)
		fmt.Printf("Reference audio: %s\n", lesson.ReferenceAudioPath)
		fmt.Printf("Takes: %d\n\n", len(recordings))
		fmt.Println(lesson.TextContent)
		return nil
	},
}

var lessonAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new lesson",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		language, _ := cmd.Flags().GetString("language")
		accentTag, _ := cmd.Flags().GetString("accent")
		textFile, _ := cmd.Flags().GetString("text")
		audioFile, _ := cmd.Flags().GetString("audio")

		if title == "" || textFile == "" || audioFile == "" {
			return fmt.Errorf("--title, --text and --audio are required")
		}

		text, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("reading lesson text: %w", err)
		}

		a, err := newApp("CreateLesson")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Service().CreateLessonFromFiles(title, language, accentTag, string(text), audioFile)
		if err != nil {
			return err
		}

		fmt.Printf("Created lesson #%d: %s\n", id, title)
		return nil
	},
}

var lessonEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a lesson's title or script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("UpdateLesson")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Prefs().Load()
		if err != nil {
			return err
		}
		if !p.EditEnabled {
			return fmt.Errorf("editing is disabled; enable with 'accent prefs set edit_enabled true'")
		}

		lesson, err := a.Service().GetLesson(id)
		if err != nil {
			return err
		}
		if lesson == nil {
			return fmt.Errorf("lesson %d not found", id)
		}

		if title, _ := cmd.Flags().GetString("title"); title != "" {
			lesson.Title = title
		}
		if language, _ := cmd.Flags().GetString("language"); language != "" {
			lesson.Language = language
		}
		if accentTag, _ := cmd.Flags().GetString("accent"); accentTag != "" {
			lesson.Accent = accentTag
		}
		if textFile, _ := cmd.Flags().GetString("text"); textFile != "" {
			text, err := os.ReadFile(textFile)
			if err != nil {
				return fmt.Errorf("reading lesson text: %w", err)
			}
			lesson.TextContent = string(text)
		}

		if err := a.Service().UpdateLesson(lesson); err != nil {
			return err
		}
		fmt.Printf("Updated lesson #%d\n", id)
		return nil
	},
}

var lessonDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a lesson and its takes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("DeleteLesson")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := confirmDeletes(a, force); err != nil {
			return err
		}

		if err := a.Service().DeleteLesson(id); err != nil {
			return err
		}
		fmt.Printf("Deleted lesson #%d\n", id)
		return nil
	},
}

// segments command
var segmentsCmd = &cobra.Command{
	Use:   "segments ID",
	Short: "Show a lesson's parsed playback segments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("LessonSegments")
		if err != nil {
			return err
		}
		defer a.Close()

		segs, err := a.Service().LessonSegments(id)
		if err != nil {
			return err
		}

		stamp := color.New(color.FgYellow)
		for _, s := range segs {
			fmt.Printf("%s  %s\n", stamp.Sprintf("[%s]", formatMs(s.StartTimeMs)), s.Text)
		}
		return nil
	},
}

// rec command
var recCmd = &cobra.Command{
	Use:   "rec",
	Short: "Manage recorded takes",
}

var recListCmd = &cobra.Command{
	Use:   "list LESSON_ID",
	Short: "List takes for a lesson, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("ListRecordings")
		if err != nil {
			return err
		}
		defer a.Close()

		recordings, err := a.Service().RecordingsForLesson(lessonID)
		if err != nil {
			return err
		}
		if len(recordings) == 0 {
			fmt.Println("No takes recorded yet.")
			return nil
		}

		for _, r := range recordings {
			duration := "?"
			if r.DurationMs > 0 {
				duration = formatMs(r.DurationMs)
			}
			fmt.Printf("#%-4d %s  %s  %s\n",
				r.ID,
				time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04:05"),
				duration,
				r.AudioPath,
			)
		}
		return nil
	},
}

var recAddCmd = &cobra.Command{
	Use:   "add LESSON_ID",
	Short: "Save a recorded take for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, err := parseID(args[0])
		if err != nil {
			return err
		}
		audioFile, _ := cmd.Flags().GetString("audio")
		durationMs, _ := cmd.Flags().GetInt64("duration-ms")
		if audioFile == "" {
			return fmt.Errorf("--audio is required")
		}

		a, err := newApp("AddRecording")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Service().AddRecording(lessonID, audioFile, durationMs)
		if err != nil {
			return err
		}
		fmt.Printf("Saved take #%d for lesson #%d\n", rec.ID, lessonID)
		return nil
	},
}

var recDeleteCmd = &cobra.Command{
	Use:   "delete LESSON_ID REC_ID",
	Short: "Delete a take",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lessonID, err := parseID(args[0])
		if err != nil {
			return err
		}
		recID, err := parseID(args[1])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("DeleteRecording")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := confirmDeletes(a, force); err != nil {
			return err
		}

		recordings, err := a.Service().RecordingsForLesson(lessonID)
		if err != nil {
			return err
		}
		for i := range recordings {
			if recordings[i].ID == recID {
				if err := a.Service().DeleteRecording(&recordings[i]); err != nil {
					return err
				}
				fmt.Printf("Deleted take #%d\n", recID)
				return nil
			}
		}
		return fmt.Errorf("take %d not found for lesson %d", recID, lessonID)
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and import the whole corpus",
}

var backupExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export all lessons and takes to an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		var passphrase string
		if encrypt {
			var err error
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			if passphrase == "" {
				return fmt.Errorf("empty passphrase")
			}
		}

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ExportToFile(args[0], passphrase)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d lesson(s) and %d take(s) to %s\n", res.Lessons, res.Recordings, args[0])
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Restore lessons and takes from an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ImportFromFile(cmd.Context(), args[0], func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Restored %d lesson(s) and %d take(s)\n", res.Lessons, res.Recordings)
		if res.SkippedRecordings > 0 {
			fmt.Printf("Skipped %d take(s) whose lesson could not be restored\n", res.SkippedRecordings)
		}
		if res.Failures > 0 {
			color.Yellow("%d record(s) failed to restore; see the log for details", res.Failures)
		}
		return nil
	},
}

var backupHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "View past exports and imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Service().History(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No backup operations recorded.")
			return nil
		}

		for _, op := range ops {
			fmt.Printf("#%d  %-7s  %s  %d lesson(s), %d take(s)\n",
				op.ID, op.Kind,
				op.CreatedAt.Format("2006-01-02 15:04:05"),
				op.Lessons, op.Recordings,
			)
		}
		return nil
	},
}

// prefs command
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetPrefs")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Prefs().Load()
		if err != nil {
			return err
		}

		fmt.Printf("delete_enabled      %t\n", p.DeleteEnabled)
		fmt.Printf("edit_enabled        %t\n", p.EditEnabled)
		fmt.Printf("preferred_language  %s\n", p.PreferredLanguage)
		fmt.Printf("has_seen_onboarding %t\n", p.HasSeenOnboarding)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetPrefs")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Prefs().Load()
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "delete_enabled", "edit_enabled", "has_seen_onboarding":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", value)
			}
			switch key {
			case "delete_enabled":
				p.DeleteEnabled = b
			case "edit_enabled":
				p.EditEnabled = b
			case "has_seen_onboarding":
				p.HasSeenOnboarding = b
			}
		case "preferred_language":
			p.PreferredLanguage = value
		default:
			return fmt.Errorf("unknown preference %q", key)
		}

		if err := a.Prefs().Save(p); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

// seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the bundled lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SeedBuiltins")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.Service().SeedBuiltins()
		if err != nil {
			return err
		}

		if count == 0 {
			fmt.Println("Bundled lessons already installed.")
		} else {
			fmt.Printf("Installed %d bundled lesson(s)\n", count)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// lesson subcommands
	lessonCmd.AddCommand(lessonListCmd)
	lessonCmd.AddCommand(lessonShowCmd)
	lessonCmd.AddCommand(lessonAddCmd)
	lessonAddCmd.Flags().String("title", "", "Lesson title")
	lessonAddCmd.Flags().String("language", "English", "Language tag")
	lessonAddCmd.Flags().String("accent", "Neutral", "Accent tag")
	lessonAddCmd.Flags().String("text", "", "Path to the lesson script file")
	lessonAddCmd.Flags().String("audio", "", "Path to the reference audio file")
	lessonCmd.AddCommand(lessonEditCmd)
	lessonEditCmd.Flags().String("title", "", "New title")
	lessonEditCmd.Flags().String("language", "", "New language tag")
	lessonEditCmd.Flags().String("accent", "", "New accent tag")
	lessonEditCmd.Flags().String("text", "", "Path to the new script file")
	lessonCmd.AddCommand(lessonDeleteCmd)
	lessonDeleteCmd.Flags().Bool("force", false, "Delete even when the delete guard is off")

	// rec subcommands
	recCmd.AddCommand(recListCmd)
	recCmd.AddCommand(recAddCmd)
	recAddCmd.Flags().String("audio", "", "Path to the recorded take")
	recAddCmd.Flags().Int64("duration-ms", 0, "Take duration in milliseconds (0 = unknown)")
	recCmd.AddCommand(recDeleteCmd)
	recDeleteCmd.Flags().Bool("force", false, "Delete even when the delete guard is off")

	// backup subcommands
	backupCmd.AddCommand(backupExportCmd)
	backupExportCmd.Flags().Bool("encrypt", false, "Encrypt the archive with a passphrase")
	backupCmd.AddCommand(backupImportCmd)
	backupCmd.AddCommand(backupHistoryCmd)
	backupHistoryCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	// prefs subcommands
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(recCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(seedCmd)
}
