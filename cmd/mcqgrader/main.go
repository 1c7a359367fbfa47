package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/mcqgrader/internal/export"
	"github.com/pavelanni/mcqgrader/internal/grader"
	"github.com/pavelanni/mcqgrader/internal/handler"
	appI18n "github.com/pavelanni/mcqgrader/internal/i18n"
	"github.com/pavelanni/mcqgrader/internal/model"
	"github.com/pavelanni/mcqgrader/internal/recognize"
	"github.com/pavelanni/mcqgrader/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcqgrader",
		Short: "Grade photographed MCQ answer sheets against saved templates",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `mcqgrader --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the grading HTTP API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "mcqgrader.db", "SQLite database path")
	f.String("recognizer-url", "http://127.0.0.1:8000", "Recognition service base URL")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a single answer sheet image",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("db", "mcqgrader.db", "SQLite database path")
	f.String("recognizer-url", "http://127.0.0.1:8000", "Recognition service base URL")
	f.StringP("course", "c", "", "Course code of the template to grade against (required)")
	f.StringP("image", "i", "", "Path to the answer sheet image (required)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export graded results as CSV",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "mcqgrader.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MCQGRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("mcqgrader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mcqgrader")
	v.AddConfigPath("/etc/mcqgrader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	recognizer := recognize.New(v.GetString("recognizer-url"))
	h := handler.New(db, recognizer)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	r.Route("/api", h.Routes)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"recognizer_url", v.GetString("recognizer-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	courseCode := v.GetString("course")
	key, err := db.GetTemplate(courseCode)
	if err != nil {
		return err
	}

	imagePath := v.GetString("image")
	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	recognizer := recognize.New(v.GetString("recognizer-url"))
	recognition, err := recognizer.GradeFile(context.Background(), filepath.Base(imagePath), f)
	if err != nil {
		return fmt.Errorf("recognize sheet: %w", err)
	}

	record, err := grader.Reconcile(key, recognition)
	if err != nil {
		return fmt.Errorf("grade sheet: %w", err)
	}
	record.CourseCode = model.NormalizeCourseCode(courseCode)
	record.Timestamp = time.Now()

	if err := db.AppendResult(record); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	fmt.Printf("Reg No: %s\nCourse: %s\nScore:  %d/%d\n",
		record.RegNumber, record.CourseCode, record.Score, record.Total)
	for _, q := range record.Breakdown {
		marked := q.Marked
		if marked == "" {
			marked = "-"
		}
		fmt.Printf("Q%d: marked %s, correct %s (%s)\n", q.Question, marked, q.Correct, q.Outcome)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	records, err := db.ListResults()
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := io.WriteString(w, export.CSV(records)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
