package services

import (
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
	"raceday-api/models"
	"raceday-api/repositories"
	"raceday-api/testutils"
)

var now = time.Date(2024, time.August, 1, 12, 0, 0, 0, time.UTC)

type recordingMailer struct {
	mu            sync.Mutex
	welcomed      []string
	confirmations []string
	err           error
}

func (m *recordingMailer) SendWelcomeEmail(runner models.Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomed = append(m.welcomed, runner.Username)
	return m.err
}

func (m *recordingMailer) SendRegistrationConfirmation(runner models.Runner, event models.Event, _ models.Distance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, runner.Username+"@"+event.Name)
	return m.err
}

type countingMetrics struct {
	outcomes map[string]int
}

func (m *countingMetrics) RegistrationAttempt(outcome string) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[outcome]++
}

type fixture struct {
	db            *gorm.DB
	mailer        *recordingMailer
	metrics       *countingMetrics
	events        *EventService
	runners       *RunnerService
	registrations *RegistrationService
	distances     *DistanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutils.NewTestDB(t)
	log := testutils.DiscardLogger()
	clock := Clock(testutils.FixedClock(now))

	eventRepo := repositories.NewEventRepository(db)
	runnerRepo := repositories.NewRunnerRepository(db)
	regRepo := repositories.NewRegistrationRepository(db)

	f := &fixture{
		db:      db,
		mailer:  &recordingMailer{},
		metrics: &countingMetrics{},
	}
	f.events = NewEventService(eventRepo, log, clock)
	f.runners = NewRunnerService(runnerRepo, regRepo, f.mailer, log, clock)
	f.registrations = NewRegistrationService(regRepo, eventRepo, runnerRepo, f.mailer, f.metrics, log, clock)
	f.distances = NewDistanceService(repositories.NewDistanceRepository(db), log)
	return f
}

func actorFor(r models.Runner) Actor {
	return Actor{RunnerID: r.ID, IsStaff: r.IsStaff}
}
