package report

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/model"
)

const exportTimeout = 4 * time.Minute

// Generator builds a monthly report. Satisfied by service.ReportService.
type Generator interface {
	MonthlyReport(ctx context.Context, month, class, section string) (*model.MonthlyReport, error)
}

// Scheduler exports the previous month's all-class report on a cron spec.
type Scheduler struct {
	cron      *cron.Cron
	generator Generator
	dir       string
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

// NewScheduler registers the export job under spec (standard five-field cron,
// evaluated in loc).
func NewScheduler(spec string, generator Generator, dir string, loc *time.Location, log zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		generator: generator,
		dir:       dir,
		loc:       loc,
		now:       time.Now,
		log:       log.With().Str("component", "report_scheduler").Logger(),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info().Str("dir", s.dir).Msg("Report scheduler started")
	s.cron.Start()
}

// Stop waits for a running export to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("Report scheduler stop timed out")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	if _, err := s.ExportPreviousMonth(ctx); err != nil {
		s.log.Error().Err(err).Msg("Monthly export failed")
	}
}

// ExportPreviousMonth writes the JSON report for the month before now.
func (s *Scheduler) ExportPreviousMonth(ctx context.Context) (string, error) {
	month := PreviousMonth(s.now().In(s.loc))

	r, err := s.generator.MonthlyReport(ctx, month, "", "")
	if err != nil {
		return "", err
	}

	path, err := WriteJSON(s.dir, r)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("month", month).Str("path", path).Int("rows", len(r.Rows)).Msg("Monthly report exported")
	return path, nil
}

// PreviousMonth returns the YYYY-MM of the month before t.
func PreviousMonth(t time.Time) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, -1, 0).Format("2006-01")
}
