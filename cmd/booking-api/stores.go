package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/internal/geo"
	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/internal/repository"
	"github.com/noah-isme/class-booking-api/internal/repository/memory"
	"github.com/noah-isme/class-booking-api/pkg/config"
	"github.com/noah-isme/class-booking-api/pkg/database"
)

type sessionRepository interface {
	CreateBatch(ctx context.Context, sessions []models.ClassSession) error
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]models.ClassSession, error)
	ListActiveByZip(ctx context.Context, zip string) ([]models.ClassSession, error)
	ListActiveWithinBounds(ctx context.Context, box geo.BoundingBox) ([]models.ClassSession, error)
	UpdateCount(ctx context.Context, update models.CountUpdate) (bool, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error)
}

type enrollmentRepository interface {
	Find(ctx context.Context, studentID, sessionID string) (*models.Enrollment, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.StudentClass, error)
	ListActiveBySession(ctx context.Context, sessionID string) ([]models.Enrollment, error)
	Insert(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	Reactivate(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error)
	Restore(ctx context.Context, studentID, sessionID string) (bool, error)
	MarkCancelled(ctx context.Context, studentID, sessionID string, at time.Time) (bool, error)
}

type messageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
}

type profileRepository interface {
	Find(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	RemoveImage(ctx context.Context, userID, imageID string) (*models.ProfileImage, error)
	SetStatus(ctx context.Context, userID string, status models.ProfileStatus) error
}

type stores struct {
	sessions    sessionRepository
	enrollments enrollmentRepository
	messages    messageRepository
	profiles    profileRepository
	zips        geo.ZipSource
	db          *sqlx.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func openStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logr.Warn("using in-memory storage; data is lost on restart")
		sessions := memory.NewSessionStore()
		return &stores{
			sessions:    sessions,
			enrollments: memory.NewEnrollmentStore(sessions),
			messages:    memory.NewMessageStore(),
			profiles:    memory.NewProfileStore(),
			zips:        geo.NewStaticSource(geo.SeedZipCodes),
		}, nil
	case config.StorageDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, logr)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := database.Migrate(ctx, db, logr); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &stores{
			sessions:    repository.NewSessionRepository(db),
			enrollments: repository.NewEnrollmentRepository(db),
			messages:    repository.NewMessageRepository(db),
			profiles:    repository.NewProfileRepository(db),
			zips:        repository.NewZipCodeRepository(db),
			db:          db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
