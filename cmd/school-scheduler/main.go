package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/school-scheduler/internal/calendar"
	"github.com/username/school-scheduler/internal/config"
	"github.com/username/school-scheduler/internal/icalendar"
	"github.com/username/school-scheduler/internal/lunch"
	"github.com/username/school-scheduler/internal/planner"
	"github.com/username/school-scheduler/internal/roster"
	"github.com/username/school-scheduler/pkg/dateutil"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer = os.Stdout
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "school-scheduler",
		Short:         "School canteen week planner",
		Long:          "Compute canteen weeks and lunch totals from a school calendar (iCalendar) and a lunch roster",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out = cmd.OutOrStdout()

			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded

			logger, err = newLogger(cfg.Log)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(periodsCmd())
	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(mealsCmd())
	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(tripsCmd())

	return rootCmd
}

func periodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the periods of the school calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			periods, err := icalendar.NewFileReader(cfg.Calendar.File, logger).LoadEvents()
			if err != nil {
				return err
			}

			for i, p := range periods {
				outf("%3d  %s  %s  %3dd  %s\n", i,
					dateutil.FormatDate(p.FirstDate()),
					dateutil.FormatDate(p.LastDate()),
					p.Len(),
					p.Description())
			}
			return nil
		},
	}
}

func weekCmd() *cobra.Command {
	var dateStr string
	var nextWeek bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the canteen days of a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			p, err := initializePlanner(cmd, nextWeek, false)
			if err != nil {
				return err
			}

			week, err := p.Week(date)
			if err != nil {
				return err
			}

			printWeekHeader(week)
			if len(week.Days) == 0 {
				outln("  Canteen closed all week")
			}
			for _, day := range week.Days {
				outf("  %s\n", day.Format("Mon 2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "Reference date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&nextWeek, "next-week", false, "Show the week after the reference week")

	return cmd
}

func mealsCmd() *cobra.Command {
	var dateStr string
	var nextWeek bool
	var withoutPork bool

	cmd := &cobra.Command{
		Use:   "meals",
		Short: "Count the lunches of every canteen day of a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			p, err := initializePlanner(cmd, nextWeek, true)
			if err != nil {
				return err
			}

			week, stats, err := p.Meals(cmd.Context(), date, withoutPork)
			if err != nil {
				return err
			}

			printWeekHeader(week)
			menu := "regular"
			if withoutPork {
				menu = "without pork"
			}
			outf("  Menu: %s\n", menu)
			outln("═══════════════════════════════")
			for _, day := range week.Days {
				outf("  %-10s %s  %4d\n", dateutil.FormatDate(day), day.Format("Mon"),
					stats.GetTotalDay(calendar.WeekdayOf(day)))
			}
			outln("───────────────────────────────")
			outf("  Total               %4d\n", stats.Total())
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "Reference date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&nextWeek, "next-week", false, "Count the week after the reference week")
	cmd.Flags().BoolVar(&withoutPork, "without-pork", false, "Count pork-free lunches instead of regular ones")

	return cmd
}

func dayCmd() *cobra.Command {
	var dateStr string
	var school string

	cmd := &cobra.Command{
		Use:   "day",
		Short: "List the pupils eating at the canteen on a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			p, err := initializePlanner(cmd, false, true)
			if err != nil {
				return err
			}

			list, err := p.DayList(cmd.Context(), date, school)
			if err != nil {
				return err
			}

			outf("📅 %s: %d lunch(es)\n", date.Format("Mon 2006-01-02"), len(list))
			for _, reg := range list {
				diet := ""
				if reg.WithoutPork {
					diet = " (without pork)"
				}
				outf("  %-5s %-14s %s%s\n", reg.Grade, reg.Teacher, reg.Name, diet)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "Day (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&school, "school", "", "Only list pupils of this school")

	return cmd
}

func tripsCmd() *cobra.Command {
	var dateStr string
	var division string

	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List upcoming school trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			if cfg.Roster.File == "" {
				return fmt.Errorf("roster.file is required for this command")
			}

			r, err := roster.Load(cfg.Roster.File, logger)
			if err != nil {
				return err
			}

			for _, trip := range r.UpcomingTrips(date, division) {
				outf("  %s .. %s  %-24s %d pupil(s)\n",
					dateutil.FormatDate(trip.Start.Time),
					dateutil.FormatDate(trip.End.Time),
					trip.Name,
					len(trip.Pupils))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "List trips starting on or after this day (default today)")
	cmd.Flags().StringVar(&division, "division", "", "Only list trips of this division")

	return cmd
}

func initializePlanner(cmd *cobra.Command, nextWeek, needRoster bool) (*planner.Planner, error) {
	if cmd.Flags().Changed("next-week") {
		cfg.Week.NextWeek = nextWeek
	}

	var registrations lunch.Registrations
	if needRoster {
		if cfg.Roster.File == "" {
			return nil, fmt.Errorf("roster.file is required for this command")
		}
		r, err := roster.Load(cfg.Roster.File, logger)
		if err != nil {
			return nil, err
		}
		registrations = r
	}

	reader := icalendar.NewFileReader(cfg.Calendar.File, logger)
	resolver := lunch.NewResolver(registrations, logger)

	p := planner.NewPlanner(cfg, reader, resolver, logger)
	if len(cfg.Calendar.ExtraFiles) > 0 {
		sources := make([]planner.PeriodSource, 0, len(cfg.Calendar.ExtraFiles))
		for _, file := range cfg.Calendar.ExtraFiles {
			sources = append(sources, icalendar.NewFileReader(file, logger))
		}
		p.WithClosures(planner.NewCompositeSource(logger, sources...))
	}

	return p, nil
}

func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return dateutil.Today(), nil
	}
	date, err := dateutil.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return date, nil
}

func printWeekHeader(week lunch.WeekDates) {
	year, number := dateutil.GetWeekNumber(week.FirstDay)
	outf("\n📅 Week %d-W%02d (%s to %s)\n", year, number,
		dateutil.FormatDate(week.FirstDay),
		dateutil.FormatDate(week.LastDay))
}

func outf(format string, a ...interface{}) {
	fmt.Fprintf(out, format, a...)
}

func outln(a ...interface{}) {
	fmt.Fprintln(out, a...)
}

// newLogger builds the console logger, or a rotated file logger when a log file is set
func newLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if logCfg.Level != "" {
		parsed, err := zapcore.ParseLevel(logCfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}

	if logCfg.File != "" {
		return initFileLogger(logCfg.File, level), nil
	}
	return initLogger(level)
}

func initLogger(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func initFileLogger(logFile string, level zapcore.Level) *zap.Logger {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,   // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		level,
	)

	return zap.New(core)
}
