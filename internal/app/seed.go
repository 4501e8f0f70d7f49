package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/musihub/backend/internal/config"
	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/db"
	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
	"github.com/musihub/backend/internal/repositories"
)

var instruments = []string{
	"guitar", "bass", "drums", "piano", "violin", "cello", "saxophone",
	"trumpet", "synth", "vocals", "double bass", "flute",
}

func seedFile(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return errors.New("expected seed name (e.g. dev) or the fake subcommand")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	seedDir, err := resolveDir(cfg.SeedDir)
	if err != nil {
		return err
	}

	fileName := seedFileName(name)
	contents, err := os.ReadFile(filepath.Join(seedDir, fileName))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", fileName, err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", fileName, err)
	}

	fmt.Fprintf(cmd.Root().Writer, "applied seed %s\n", fileName)
	return nil
}

// seedFileName maps "dev" to "dev_seed.sql" and leaves explicit .sql names alone.
func seedFileName(name string) string {
	if strings.HasSuffix(name, ".sql") {
		return name
	}
	return fmt.Sprintf("%s_seed.sql", name)
}

func seedFake(ctx context.Context, cmd *cli.Command) error {
	count := cmd.Int("count")
	if count < 1 {
		return errors.New("count must be at least 1")
	}
	password := cmd.String("password")
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx = logging.WithLogger(ctx, logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	seeder := fakeSeeder{
		users:       repositories.NewPostgresUserRepository(pool),
		profiles:    repositories.NewPostgresProfileRepository(pool),
		connections: connections.NewService(repositories.NewPostgresConnectionRepository(pool), nil),
		faker:       gofakeit.New(cmd.Int64("seed")),
		hash:        string(hashed),
	}

	created, requests, err := seeder.run(ctx, count)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "created %d musicians and %d pending connection requests\n", len(created), requests)
	for _, user := range created {
		fmt.Fprintf(cmd.Root().Writer, "  %s <%s>\n", user.Name, user.Email)
	}
	return nil
}

type fakeUserStore interface {
	Create(ctx context.Context, user models.User) error
}

type fakeProfileStore interface {
	Create(ctx context.Context, profile models.Profile) error
}

type fakeRequester interface {
	Request(ctx context.Context, initiatorID, recipientID string) (models.ConnectionRequest, error)
}

// fakeSeeder creates generated musicians and links some of them with pending requests.
type fakeSeeder struct {
	users       fakeUserStore
	profiles    fakeProfileStore
	connections fakeRequester
	faker       *gofakeit.Faker
	hash        string
	now         func() time.Time
}

func (s fakeSeeder) run(ctx context.Context, count int) ([]models.User, int, error) {
	logger := logging.FromContext(ctx)
	now := time.Now().UTC()
	if s.now != nil {
		now = s.now()
	}

	var (
		users    []models.User
		profiles []models.Profile
	)
	for i := 0; i < count; i++ {
		user, profile := s.musician(now)
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				logger.Warn("skipping fake musician with duplicate email", "email", user.Email)
				continue
			}
			return users, 0, fmt.Errorf("create fake user: %w", err)
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return users, 0, fmt.Errorf("create fake profile: %w", err)
		}
		users = append(users, user)
		profiles = append(profiles, profile)
	}

	// Every other musician asks the next one to connect.
	requests := 0
	for i := 0; i+1 < len(profiles); i += 2 {
		if _, err := s.connections.Request(ctx, profiles[i].ID, profiles[i+1].ID); err != nil {
			if errors.Is(err, connections.ErrRequestExists) {
				continue
			}
			return users, requests, fmt.Errorf("create fake connection request: %w", err)
		}
		requests++
	}

	return users, requests, nil
}

func (s fakeSeeder) musician(now time.Time) (models.User, models.Profile) {
	user := models.User{
		ID:        uuid.NewString(),
		Name:      s.faker.Name(),
		Email:     strings.ToLower(s.faker.Email()),
		Password:  s.hash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	profile := models.DefaultProfile(uuid.NewString(), user, now)
	profile.Bio = fmt.Sprintf("Plays %s. %s", s.faker.RandomString(instruments), s.faker.Sentence(8))
	profile.Location = s.faker.City()

	return user, profile
}
