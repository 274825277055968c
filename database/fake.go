package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"raceday-api/models"
)

// FakePassword is the password of every generated runner
const FakePassword = "raceday-demo"

// FakeOptions controls SeedFake
type FakeOptions struct {
	Runners int
	Events  int
	Seed    uint64
	Now     time.Time
}

// SeedFake fills a development database with generated runners, events and
// registrations. Standard distances are created first when missing.
func SeedFake(db *gorm.DB, log *slog.Logger, opts FakeOptions) error {
	if err := SeedData(db, log); err != nil {
		return err
	}

	var distances []models.Distance
	if err := db.Order("km ASC").Find(&distances).Error; err != nil {
		return fmt.Errorf("failed to load distances: %w", err)
	}
	if len(distances) == 0 {
		return fmt.Errorf("no distances to attach events to")
	}

	faker := gofakeit.New(opts.Seed)
	hashed, err := bcrypt.GenerateFromPassword([]byte(FakePassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		runners := make([]models.Runner, 0, opts.Runners)
		for i := 0; i < opts.Runners; i++ {
			dob := faker.DateRange(opts.Now.AddDate(-70, 0, 0), opts.Now.AddDate(-16, 0, 0))
			date := models.NewDate(dob.Date())
			phone := faker.Numerify("+380#########")
			gender := models.GenderMale
			if faker.Bool() {
				gender = models.GenderFemale
			}
			runner := models.Runner{
				Username:    fmt.Sprintf("%s%d", faker.Username(), i),
				FirstName:   truncate(faker.FirstName(), 30),
				LastName:    truncate(faker.LastName(), 30),
				City:        truncate(faker.City(), 30),
				DateOfBirth: &date,
				Gender:      gender,
				PhoneNumber: &phone,
				Email:       faker.Email(),
				Password:    string(hashed),
			}
			if err := tx.Omit("Registrations").Create(&runner).Error; err != nil {
				return fmt.Errorf("failed to create runner: %w", err)
			}
			runners = append(runners, runner)
		}

		registrations := 0
		for i := 0; i < opts.Events; i++ {
			start := faker.DateRange(opts.Now.AddDate(0, -6, 0), opts.Now.AddDate(0, 6, 0)).UTC().Truncate(time.Minute)
			event := models.Event{
				Name:          truncate(fmt.Sprintf("%s %s", faker.City(), faker.RandomString([]string{"Marathon", "Run", "Trail", "Classic", "Challenge"})), 100),
				StartDatetime: start,
				Location:      truncate(faker.Address().Street, 100),
				Description:   faker.Paragraph(1, 3, 12, "\n"),
				EventType:     models.EventTypes[faker.Number(0, len(models.EventTypes)-1)],
				Organiser:     truncate(faker.Company(), 100),
			}
			event.RecomputeActive(opts.Now)
			if err := tx.Omit("Distances", "Registrations").Create(&event).Error; err != nil {
				return fmt.Errorf("failed to create event: %w", err)
			}

			offered := pickDistances(faker, distances)
			if err := tx.Model(&event).Association("Distances").Replace(offered); err != nil {
				return fmt.Errorf("failed to attach distances: %w", err)
			}

			for _, runner := range runners {
				if !faker.Bool() {
					continue
				}
				reg := models.Registration{
					EventID:          event.ID,
					RunnerID:         runner.ID,
					DistanceID:       offered[faker.Number(0, len(offered)-1)].ID,
					RegistrationDate: start.Add(-time.Duration(faker.Number(1, 60*24)) * time.Hour),
				}
				if err := tx.Omit("Event", "Runner", "Distance").Create(&reg).Error; err != nil {
					return fmt.Errorf("failed to create registration: %w", err)
				}
				registrations++
			}
		}

		log.Info("Fake data generated",
			slog.Int("runners", len(runners)),
			slog.Int("events", opts.Events),
			slog.Int("registrations", registrations),
		)
		return nil
	})
}

func pickDistances(faker *gofakeit.Faker, all []models.Distance) []models.Distance {
	picked := make([]models.Distance, 0, len(all))
	for _, d := range all {
		if faker.Bool() {
			picked = append(picked, d)
		}
	}
	if len(picked) == 0 {
		picked = append(picked, all[faker.Number(0, len(all)-1)])
	}
	return picked
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
