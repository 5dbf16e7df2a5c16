package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdraw/drawbot/internal/database/postgres"
	"github.com/eventdraw/drawbot/internal/repository"
)

// Repositories holds all repository implementations used by the
// application.
type Repositories struct {
	Event       repository.Event
	Contact     repository.Contact
	Participant repository.Participant
	Winner      repository.Winner
	DrawConfig  repository.DrawConfig
	Job         repository.Job
	Token       repository.Token
}

// InitializeRepositories creates all repository implementations
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Event:       postgres.NewEventRepository(dbPool),
		Contact:     postgres.NewContactRepository(dbPool),
		Participant: postgres.NewParticipantRepository(dbPool),
		Winner:      postgres.NewWinnerRepository(dbPool),
		DrawConfig:  postgres.NewDrawConfigRepository(dbPool),
		Job:         postgres.NewJobRepository(dbPool),
		Token:       postgres.NewTokenRepository(dbPool),
	}
}
