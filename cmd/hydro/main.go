package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hydro-go/internal/app"
	"hydro-go/internal/config"
	"hydro-go/internal/encryption"
	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
	"hydro-go/internal/notify"
	"hydro-go/internal/signals"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a HydroApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddEntry", "Refresh").
func newApp(cmd *cobra.Command, operation string, notifier hydro.Notifier) (*app.HydroApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var tempOverride *float64
	if cmd.Flags().Changed("temp") {
		v, _ := cmd.Flags().GetFloat64("temp")
		tempOverride = &v
	}
	var minutesOverride *int
	if cmd.Flags().Changed("workout-minutes") {
		v, _ := cmd.Flags().GetInt("workout-minutes")
		minutesOverride = &v
	}

	a, err := app.NewHydroApp(cfg, operation, app.Options{
		Signals:  signals.FromConfig(cfg.Signals, tempOverride, minutesOverride),
		Notifier: notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("passphrase prompt needs a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(data), nil
}

var rootCmd = &cobra.Command{
	Use:           "hydro",
	Short:         "Hydration goals, streaks and reminders",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		installID := uuid.New().String()
		cfg := config.NewConfig(installID, defaults["base_dir"])
		if vaultDir, _ := cmd.Flags().GetString("vault-dir"); vaultDir != "" {
			cfg.Vaults = []config.VaultConfig{{Type: "filesystem", Name: "local", FSVaultRoot: vaultDir}}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if !enc.IsConfigured() {
			passphrase, err := readPassphrase("Passphrase for the backup key: ")
			if err != nil {
				return err
			}
			if err := enc.Setup(passphrase); err != nil {
				return fmt.Errorf("setting up encryption: %w", err)
			}
		}
		if err := app.PublishKeys(cfg); err != nil {
			return fmt.Errorf("publishing keys: %w", err)
		}

		if _, err := app.MigrateDatabase(cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Install ID: %s\n", cfg.InstallID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		tz := cfg.Timezone
		if tz == "" {
			tz = "local"
		}
		fmt.Printf("Timezone:   %s\n", tz)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database schema",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := app.MigrateDatabase(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Database at version %d\n", st.Version)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := app.DatabaseStatus(cfg)
		if err != nil {
			return err
		}
		state := "current"
		switch {
		case st.Dirty:
			state = "dirty"
		case st.Version < st.Latest:
			state = fmt.Sprintf("%d behind", st.Latest-st.Version)
		}
		fmt.Printf("Version %d of %d (%s)\n", st.Version, st.Latest, state)
		return nil
	},
}

// profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View or change your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "GetProfile", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}
		printProfile(p)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change profile settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SaveProfile", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}
		if err := applyProfileFlags(cmd, p); err != nil {
			return err
		}
		if err := a.SaveProfile(p); err != nil {
			return err
		}
		if err := hydro.CheckConflicts(p); err != nil {
			fmt.Printf("Note: %v\n", err)
		}
		if _, err := a.Refresh(cmd.Context()); err != nil {
			return err
		}
		printProfile(p)
		return nil
	},
}

func applyProfileFlags(cmd *cobra.Command, p *model.Profile) error {
	f := cmd.Flags()
	if f.Changed("name") {
		p.Name, _ = f.GetString("name")
	}
	if f.Changed("units") {
		units, _ := f.GetString("units")
		p.UnitSystem = model.UnitSystem(units)
	}
	if f.Changed("weight") {
		w, _ := f.GetFloat64("weight")
		p.WeightKg = hydro.ToKg(w, p.UnitSystem)
	}
	if f.Changed("activity") {
		activity, _ := f.GetString("activity")
		p.Activity = model.ActivityLevel(activity)
	}
	if f.Changed("goal") {
		goal, _ := f.GetFloat64("goal")
		ml := hydro.ToML(goal, p.UnitSystem)
		p.CustomGoalML = &ml
	}
	if reset, _ := f.GetBool("clear-goal"); reset {
		p.CustomGoalML = nil
	}
	for flag, dst := range map[string]*int{"wake": &p.WakeMinutes, "sleep": &p.SleepMinutes} {
		if !f.Changed(flag) {
			continue
		}
		raw, _ := f.GetString(flag)
		minute, err := hydro.ParseClock(raw)
		if err != nil {
			return err
		}
		*dst = minute
	}
	for flag, dst := range map[string]*bool{
		"reminders": &p.RemindersEnabled,
		"smart":     &p.SmartReminders,
		"weather":   &p.PrefersWeatherGoal,
		"healthkit": &p.PrefersHealthKit,
	} {
		if f.Changed(flag) {
			*dst, _ = f.GetBool(flag)
		}
	}
	if f.Changed("reminder-count") {
		p.ReminderCount, _ = f.GetInt("reminder-count")
	}
	return nil
}

// drink command
var drinkCmd = &cobra.Command{
	Use:   "drink",
	Short: "Log and manage drinks",
}

var drinkAddCmd = &cobra.Command{
	Use:   "add AMOUNT",
	Short: "Log a drink (amount in your display unit)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		fluid, _ := cmd.Flags().GetString("fluid")
		note, _ := cmd.Flags().GetString("note")
		at, _ := cmd.Flags().GetString("at")
		imported, _ := cmd.Flags().GetBool("import")

		a, err := newApp(cmd, "AddEntry", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}
		ts, err := parseWhen(at, a.Service().Today())
		if err != nil {
			return err
		}

		var entry model.Entry
		ml := hydro.ToML(amount, p.UnitSystem)
		if imported {
			entry, err = a.ImportEntry(ts, ml, model.FluidType(fluid))
		} else {
			entry, err = a.AddEntry(model.Entry{Timestamp: ts, VolumeML: ml, FluidType: model.FluidType(fluid), Note: note})
		}
		if err != nil {
			return err
		}

		fmt.Printf("Logged %s of %s (%s)\n", hydro.FormatVolume(entry.VolumeML, p.UnitSystem), entry.FluidType, entry.ID)
		return refreshAndPrint(cmd.Context(), a, false)
	},
}

var drinkQuickCmd = &cobra.Command{
	Use:   "quick [ML]",
	Short: "Log a glass of water (50-2000 ml, default 250)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ml := 250
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			ml = v
		}

		a, err := newApp(cmd, "QuickAdd", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.QuickAdd(ml)
		if err != nil {
			return err
		}
		fmt.Printf("Logged %d ml of water\n", entry.VolumeML)
		return refreshAndPrint(cmd.Context(), a, false)
	},
}

var drinkEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a logged drink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "UpdateEntry", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}

		var edit model.EntryEdit
		if cmd.Flags().Changed("amount") {
			amount, _ := cmd.Flags().GetFloat64("amount")
			ml := hydro.ToML(amount, p.UnitSystem)
			edit.VolumeML = &ml
		}
		if cmd.Flags().Changed("fluid") {
			raw, _ := cmd.Flags().GetString("fluid")
			fluid := model.FluidType(raw)
			edit.FluidType = &fluid
		}
		if cmd.Flags().Changed("note") {
			note, _ := cmd.Flags().GetString("note")
			edit.Note = &note
		}

		entry, err := a.UpdateEntry(args[0], edit)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s: %s of %s\n", entry.ID, hydro.FormatVolume(entry.VolumeML, p.UnitSystem), entry.FluidType)
		return refreshAndPrint(cmd.Context(), a, false)
	},
}

var drinkRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a logged drink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteEntry", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteEntry(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return refreshAndPrint(cmd.Context(), a, false)
	},
}

var drinkLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List drinks of a day, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListEntries", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}

		day := a.Service().Today()
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			day, err = time.ParseInLocation("2006-01-02", raw, day.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", raw, err)
			}
		}

		entries := a.Service().EntriesOn(day)
		if len(entries) == 0 {
			fmt.Println("No drinks logged.")
			return nil
		}
		for _, e := range entries {
			printEntry(e, p.UnitSystem)
		}
		fmt.Printf("Total: %s\n", hydro.FormatVolume(a.Service().TotalOn(day), p.UnitSystem))
		return nil
	},
}

// today command
var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's goal, progress, quests and rewards",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Refresh", nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return refreshAndPrint(cmd.Context(), a, true)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Daily totals against today's goal",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		a, err := newApp(cmd, "History", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}
		history, err := a.History(cmd.Context(), days)
		if err != nil {
			return err
		}
		for _, h := range history {
			mark := " "
			if h.Met {
				mark = "*"
			}
			fmt.Printf("%s %s  %10s / %s\n", mark, hydro.DayKey(h.Day),
				hydro.FormatVolume(h.TotalML, p.UnitSystem), hydro.FormatVolume(h.GoalML, p.UnitSystem))
		}
		return nil
	},
}

// reminders command
var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Show the reminder schedule from the last refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ListReminders", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile()
		if err != nil {
			return err
		}
		reminders, err := a.StoredReminders()
		if err != nil {
			return err
		}
		if len(reminders) == 0 {
			fmt.Println("No reminders scheduled.")
			return nil
		}
		for _, r := range reminders {
			fmt.Printf("%s  by then %s\n", hydro.FormatClock(r.Minute), hydro.FormatVolume(r.PacingTargetML, p.UnitSystem))
		}
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run in the foreground and deliver reminders as they come due",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		var a *app.HydroApp
		runner := notify.NewCronRunner(loc, func(r model.ReminderTime) {
			deliverReminder(ctx, a, r)
		}, hydro.NewNopLogger())

		a, err = newApp(cmd, "Remind", runner)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Refresh(ctx); err != nil {
			return err
		}
		fmt.Printf("Watching %d reminder(s); Ctrl-C to stop\n", runner.Len())

		go refreshDaily(ctx, a, loc)
		return runner.Run(ctx)
	},
}

// deliverReminder re-reads the ledger so drinks logged by other commands
// count, and stays quiet when smart mode has dropped the slot since.
func deliverReminder(ctx context.Context, a *app.HydroApp, r model.ReminderTime) {
	if err := a.Service().Load(); err != nil {
		fmt.Fprintf(os.Stderr, "reloading entries: %v\n", err)
	}
	current, err := a.Service().Reminders(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "computing reminders: %v\n", err)
		return
	}
	for _, c := range current {
		if c.Minute == r.Minute {
			fmt.Printf("\a%s  Time for a drink! Aim for %d ml by now.\n", hydro.FormatClock(r.Minute), c.PacingTargetML)
			return
		}
	}
}

func refreshDaily(ctx context.Context, a *app.HydroApp, loc *time.Location) {
	for {
		now := time.Now().In(loc)
		midnight := hydro.StartOfDay(now).AddDate(0, 0, 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(midnight.Sub(now) + time.Second):
		}
		if err := a.Service().Load(); err != nil {
			fmt.Fprintf(os.Stderr, "reloading entries: %v\n", err)
			continue
		}
		if _, err := a.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "refreshing: %v\n", err)
		}
	}
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View the operation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "ListOperations", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Operations(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
			)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload an encrypted snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Backup", nil)
		if err != nil {
			return err
		}
		if err := a.Backup(); err != nil {
			a.Close()
			return err
		}
		if err := a.Close(); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Snapshot %d uploaded\n", a.Operation().ID)
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local database with the newest snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var passphrase string
		if cfg.Encryption.Type != "test" {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}
		version, err := app.Restore(cfg, passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Restored snapshot %d\n", version)
		return nil
	},
}

// parseWhen accepts "", "HH:MM" (on day) or RFC 3339.
func parseWhen(raw string, day time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if minute, err := hydro.ParseClock(raw); err == nil {
		return day.Add(time.Duration(minute) * time.Minute), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --at must be HH:MM or RFC 3339, got %q", hydro.ErrInvalidInput, raw)
	}
	return ts, nil
}

func refreshAndPrint(ctx context.Context, a *app.HydroApp, full bool) error {
	d, err := a.Refresh(ctx)
	if err != nil {
		return err
	}
	printDashboard(d, full)
	return nil
}

func init() {
	rootCmd.PersistentFlags().Float64("temp", 0, "Outside temperature in °C for today's goal")
	rootCmd.PersistentFlags().Int("workout-minutes", 0, "Exercise minutes for today's goal")

	configCmd.AddCommand(configInitCmd, configListCmd)
	configInitCmd.Flags().String("vault-dir", "", "Directory for a filesystem snapshot vault")

	dbCmd.AddCommand(dbMigrateCmd, dbStatusCmd)

	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	pf := profileSetCmd.Flags()
	pf.String("name", "", "Display name")
	pf.String("units", "", "metric or imperial")
	pf.Float64("weight", 0, "Body weight in kg (lb when imperial)")
	pf.String("activity", "", "chill, steady or intense")
	pf.Float64("goal", 0, "Custom daily goal in ml (fl oz when imperial)")
	pf.Bool("clear-goal", false, "Go back to the computed goal")
	pf.String("wake", "", "Wake time HH:MM")
	pf.String("sleep", "", "Sleep time HH:MM")
	pf.Bool("reminders", true, "Enable reminders")
	pf.Int("reminder-count", 8, "Reminders per day")
	pf.Bool("smart", false, "Skip reminders when you're on pace")
	pf.Bool("weather", false, "Adjust the goal for hot weather")
	pf.Bool("healthkit", false, "Adjust the goal for workouts")

	drinkCmd.AddCommand(drinkAddCmd, drinkQuickCmd, drinkEditCmd, drinkRmCmd, drinkLsCmd)
	drinkAddCmd.Flags().StringP("fluid", "f", string(model.Water), "Fluid type: "+fluidList())
	drinkAddCmd.Flags().String("note", "", "Free text note")
	drinkAddCmd.Flags().String("at", "", "When: HH:MM today or RFC 3339 (default now)")
	drinkAddCmd.Flags().Bool("import", false, "Record as imported from the health store")
	drinkEditCmd.Flags().Float64("amount", 0, "New amount in your display unit")
	drinkEditCmd.Flags().StringP("fluid", "f", "", "New fluid type")
	drinkEditCmd.Flags().String("note", "", "New note")
	drinkLsCmd.Flags().String("date", "", "Day to list, YYYY-MM-DD (default today)")

	historyCmd.Flags().IntP("days", "n", 7, "Number of days to show")
	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	rootCmd.AddCommand(configCmd, dbCmd, profileCmd, drinkCmd, todayCmd, historyCmd,
		remindersCmd, remindCmd, opsCmd, backupCmd, restoreCmd)
}

func fluidList() string {
	names := make([]string, len(model.FluidTypes))
	for i, f := range model.FluidTypes {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
