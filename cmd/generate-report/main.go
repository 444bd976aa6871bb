package main

import (
	"context"
	"flag"
	"time"

	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/database"
	"github.com/stemsi/attendance-backend/internal/logger"
	"github.com/stemsi/attendance-backend/internal/report"
	"github.com/stemsi/attendance-backend/internal/repository"
	"github.com/stemsi/attendance-backend/internal/service"
)

func main() {
	cfg := config.Load()

	month := flag.String("month", "", "Month to report as YYYY-MM (default: current month)")
	class := flag.String("class", "", "Only students in this class")
	section := flag.String("section", "", "Only students in this section")
	format := flag.String("format", "json", "Output format: json or xlsx")
	dir := flag.String("dir", cfg.ReportDir, "Output directory")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "generate_report").Logger()

	if *format != "json" && *format != "xlsx" {
		log.Fatal().Str("format", *format).Msg("Unknown format, want json or xlsx")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// MonthlyReport reads the ledger only, so Redis is not required.
	reportService := service.NewReportService(
		repository.NewAttendanceRepository(pool),
		nil,
		cfg.StatsCacheTTL,
		cfg.Location,
		log,
	)

	r, err := reportService.MonthlyReport(ctx, *month, *class, *section)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build report")
	}

	var path string
	if *format == "xlsx" {
		path, err = report.WriteXLSXFile(*dir, r)
	} else {
		path, err = report.WriteJSON(*dir, r)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}

	log.Info().
		Str("month", r.Month).
		Int("rows", len(r.Rows)).
		Str("path", path).
		Msg("Attendance report generated")
}
