package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/model"
)

const RecordedPollTimeout = 1 * time.Second

// RecordedHandler consumes one committed bulk write.
type RecordedHandler interface {
	HandleRecorded(ctx context.Context, fact model.RecordedFact) error
}

// RecordedWorker drains the attendance-recorded queue. Delivery is best
// effort: a failed handler call is logged and the fact is dropped.
type RecordedWorker struct {
	rdb     *redis.Client
	handler RecordedHandler
	log     zerolog.Logger
}

func NewRecordedWorker(rdb *redis.Client, handler RecordedHandler, log zerolog.Logger) *RecordedWorker {
	return &RecordedWorker{
		rdb:     rdb,
		handler: handler,
		log:     log.With().Str("component", "recorded_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *RecordedWorker) Start(ctx context.Context) {
	w.log.Info().Msg("RecordedWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("RecordedWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, RecordedPollTimeout, config.WorkerKey.AttendanceRecordedQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					// Avoid spinning while Redis is unreachable.
					time.Sleep(RecordedPollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			w.process(ctx, []byte(item[1]))
		}
	}
}

func (w *RecordedWorker) process(ctx context.Context, raw []byte) {
	var fact model.RecordedFact
	if err := json.Unmarshal(raw, &fact); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if err := w.handler.HandleRecorded(ctx, fact); err != nil {
		w.log.Error().Err(err).Str("date", fact.Date.String()).Msg("Recorded handler failed")
	}
}

// ----------------------------------------------------------------
// Default handler
// ----------------------------------------------------------------

// LogSink logs the status tally of each recorded fact.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "attendance_sink").Logger()}
}

func (s *LogSink) HandleRecorded(_ context.Context, fact model.RecordedFact) error {
	tally := model.TallyStatuses(fact.Attendances)

	s.log.Info().
		Str("date", fact.Date.String()).
		Str("class", valueOr(fact.Class, "all")).
		Str("section", valueOr(fact.Section, "all")).
		Int("present", tally.Present).
		Int("absent", tally.Absent).
		Int("late", tally.Late).
		Msg("Attendance recorded")
	return nil
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
