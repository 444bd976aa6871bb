package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/stemsi/attendance-backend/internal/cache"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/database"
	"github.com/stemsi/attendance-backend/internal/logger"
	"github.com/stemsi/attendance-backend/internal/model"
	"github.com/stemsi/attendance-backend/internal/repository"
	"github.com/stemsi/attendance-backend/internal/service"
	"github.com/stemsi/attendance-backend/internal/worker"
)

const (
	studentsPerSection = 10
	seedDays           = 15
	seedRecorder       = "Seeder Bot"
)

// roster is the class -> sections grid the demo data is spread over.
var roster = []struct {
	class    string
	sections []string
}{
	{"10", []string{"A", "B"}},
	{"11", []string{"A", "B"}},
	{"12", []string{"A"}},
}

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
	"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
	"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
	"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
	"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
	"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
	"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
	"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
}

func main() {
	printToken := flag.Bool("token", false, "Also print a 24h staff bearer token signed with JWT_SECRET")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	photos := service.NewLocalPhotoStorage(cfg.UploadDir, "/uploads", cfg.MaxUploadBytes)

	studentService := service.NewStudentService(studentRepo, photos, log)
	attendanceService := service.NewAttendanceService(studentRepo, attendanceRepo, cache.New(rdb), worker.NewQueuePublisher(rdb), log)

	fmt.Println("=== Seeding students ===")

	created := 0
	n := 0
	groups := make(map[string][]int64)
	for _, r := range roster {
		for _, section := range r.sections {
			for i := 0; i < studentsPerSection; i++ {
				code := fmt.Sprintf("STU-%s%s-%02d", r.class, section, i+1)
				_, err := studentService.Create(ctx, model.CreateStudentRequest{
					Name:        names[n%len(names)],
					StudentCode: code,
					Class:       r.class,
					Section:     section,
				}, nil)
				n++

				if errors.Is(err, repository.ErrDuplicateStudentCode) {
					continue
				}
				if err != nil {
					log.Fatal().Err(err).Str("student_id", code).Msg("Failed to create student")
				}
				created++
			}

			// Re-runs reuse students created earlier.
			students, _, err := studentService.List(ctx, model.StudentFilter{Class: r.class, Section: section}, 1, 100)
			if err != nil {
				log.Fatal().Err(err).Str("class", r.class).Msg("Failed to list roster")
			}
			for _, s := range students {
				groups[r.class+section] = append(groups[r.class+section], s.ID)
			}
		}
	}
	fmt.Printf("Created %d students.\n", created)

	fmt.Println("=== Seeding attendance ===")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	days := recentWeekdays(model.DateOf(time.Now().In(cfg.Location)), seedDays)

	recorded := 0
	for _, day := range days {
		for _, r := range roster {
			for _, section := range r.sections {
				ids := groups[r.class+section]
				if len(ids) == 0 {
					continue
				}

				entries := make([]model.BulkAttendanceEntry, len(ids))
				for i, id := range ids {
					entries[i] = model.BulkAttendanceEntry{StudentID: id, Status: randomStatus(rng)}
				}

				saved, err := attendanceService.RecordBulk(ctx, model.BulkAttendanceRequest{
					Date:       day.String(),
					Class:      r.class,
					Section:    section,
					RecordedBy: seedRecorder,
					Entries:    entries,
				})
				if err != nil {
					log.Fatal().Err(err).Str("date", day.String()).Msg("Failed to record attendance")
				}
				recorded += len(saved)
			}
		}
	}
	fmt.Printf("Recorded %d attendance rows over %d weekdays.\n", recorded, len(days))

	if *printToken {
		token, err := service.NewAuthService(cfg.JWTSecret).IssueToken("seed", seedRecorder, "admin", 24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign token")
		}
		fmt.Printf("\nBearer token:\n%s\n", token)
	}
}

// recentWeekdays returns the last n Monday-Friday days, today included.
func recentWeekdays(today model.Date, n int) []model.Date {
	days := make([]model.Date, 0, n)
	for d := today; len(days) < n; d = d.AddDays(-1) {
		switch d.Time().Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		days = append(days, d)
	}
	return days
}

// randomStatus is 80% present, 15% absent, 5% late.
func randomStatus(rng *rand.Rand) model.AttendanceStatus {
	roll := rng.Intn(100) + 1
	switch {
	case roll <= 5:
		return model.StatusLate
	case roll <= 20:
		return model.StatusAbsent
	default:
		return model.StatusPresent
	}
}
