// Command seeder loads sample data into MongoDB or wipes it.
//
//	seeder -i [-data ./_data]   import bootcamps, courses, reviews and users
//	seeder -d                   delete everything
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/db"
	"github.com/arzan03/devcamper/internal/geocoder"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/repository"
	"github.com/arzan03/devcamper/internal/services"
	"github.com/arzan03/devcamper/internal/utils"
)

const seedTimeout = 5 * time.Minute

type seedUser struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Role     models.Role        `json:"role"`
}

type seedBootcamp struct {
	ID            primitive.ObjectID `json:"_id"`
	User          primitive.ObjectID `json:"user"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Website       string             `json:"website"`
	Phone         string             `json:"phone"`
	Email         string             `json:"email"`
	Address       string             `json:"address"`
	Careers       []string           `json:"careers"`
	Housing       bool               `json:"housing"`
	JobAssistance bool               `json:"jobAssistance"`
	JobGuarantee  bool               `json:"jobGuarantee"`
	AcceptGi      bool               `json:"acceptGi"`
}

type seedCourse struct {
	ID                   primitive.ObjectID `json:"_id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Weeks                string             `json:"weeks"`
	Tuition              float64            `json:"tuition"`
	MinimumSkill         models.Skill       `json:"minimumSkill"`
	ScholarshipAvailable bool               `json:"scholarshipAvailable"`
	Bootcamp             primitive.ObjectID `json:"bootcamp"`
	User                 primitive.ObjectID `json:"user"`
}

type seedReview struct {
	ID       primitive.ObjectID `json:"_id"`
	Title    string             `json:"title"`
	Text     string             `json:"text"`
	Rating   int                `json:"rating"`
	Bootcamp primitive.ObjectID `json:"bootcamp"`
	User     primitive.ObjectID `json:"user"`
}

type seeder struct {
	bootcamps  repository.BootcampRepository
	courses    repository.CourseRepository
	reviews    repository.ReviewRepository
	users      repository.UserRepository
	geo        *geocoder.MapQuest
	aggregates services.Aggregator
	logger     *zerolog.Logger
	workers    int
}

func main() {
	importFlag := flag.Bool("i", false, "import the sample data")
	deleteFlag := flag.Bool("d", false, "delete all data")
	dataDir := flag.String("data", "_data", "directory holding the sample JSON files")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if *importFlag == *deleteFlag {
		fmt.Fprintln(os.Stderr, "usage: seeder -i [-data dir] | -d")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	mongo, err := db.Connect(ctx, cfg.Mongo, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongo.Disconnect(context.Background())

	if *deleteFlag {
		if err := destroy(ctx, mongo); err != nil {
			logger.Fatal().Err(err).Msg("failed to delete data")
		}
		logger.Info().Msg("data destroyed")
		return
	}

	s := &seeder{
		geo:     geocoder.NewMapQuest(cfg.Geocoder),
		logger:  &logger,
		workers: runtime.NumCPU(),
	}
	if !cfg.Geocoder.Enabled() {
		s.geo = nil
		logger.Warn().Msg("geocoder API key not set, bootcamps are imported without a location")
	}
	if s.bootcamps, err = repository.NewBootcampMongoRepository(ctx, mongo.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to create bootcamp repository")
	}
	if s.courses, err = repository.NewCourseMongoRepository(ctx, mongo.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to create course repository")
	}
	if s.reviews, err = repository.NewReviewMongoRepository(ctx, mongo.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to create review repository")
	}
	if s.users, err = repository.NewUserMongoRepository(ctx, mongo.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to create user repository")
	}
	s.aggregates = services.NewAggregator(s.bootcamps, s.courses, s.reviews, &logger)

	if err := s.run(ctx, *dataDir); err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
	logger.Info().Msg("data imported")
}

func destroy(ctx context.Context, m *db.Mongo) error {
	tasks := make([]utils.Task, 0, len(repository.Collections))
	for _, name := range repository.Collections {
		tasks = append(tasks, func() error {
			_, err := m.Database.Collection(name).DeleteMany(ctx, bson.D{})
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			return nil
		})
	}
	return utils.RunParallel(tasks...)
}

// run imports users first, then bootcamps, then their courses and reviews,
// and finally recomputes every bootcamp's aggregates.
func (s *seeder) run(ctx context.Context, dir string) error {
	var users []seedUser
	if err := readFile(dir, "users.json", &users); err != nil {
		return err
	}
	if err := s.importUsers(ctx, users); err != nil {
		return err
	}

	var bootcamps []seedBootcamp
	if err := readFile(dir, "bootcamps.json", &bootcamps); err != nil {
		return err
	}
	if err := s.importBootcamps(ctx, bootcamps); err != nil {
		return err
	}

	var courses []seedCourse
	var reviews []seedReview
	if err := readFile(dir, "courses.json", &courses); err != nil {
		return err
	}
	if err := readFile(dir, "reviews.json", &reviews); err != nil {
		return err
	}
	err := utils.RunParallel(
		func() error { return s.importCourses(ctx, courses) },
		func() error { return s.importReviews(ctx, reviews) },
	)
	if err != nil {
		return err
	}

	for _, b := range bootcamps {
		s.aggregates.RecomputeAverageCost(ctx, b.ID)
		s.aggregates.RecomputeAverageRating(ctx, b.ID)
	}
	if n := s.aggregates.Failures(); n > 0 {
		return fmt.Errorf("%d aggregate recomputations failed", n)
	}
	return nil
}

// readFile decodes dir/name into out. A missing file leaves out empty.
func readFile(dir, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (s *seeder) importUsers(ctx context.Context, users []seedUser) error {
	pool := utils.NewWorkerPool(s.workers)
	defer pool.Close()

	for _, u := range users {
		pool.Submit(func() error {
			hashed, err := auth.HashPassword(u.Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			role := u.Role
			if role == "" {
				role = models.RoleUser
			}
			_, err = s.users.Create(ctx, &models.User{
				ID:       u.ID,
				Name:     u.Name,
				Email:    u.Email,
				Password: hashed,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("insert user %s: %w", u.Email, err)
			}
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(users)).Msg("users imported")
	return nil
}

func (s *seeder) importBootcamps(ctx context.Context, bootcamps []seedBootcamp) error {
	pool := utils.NewWorkerPool(s.workers)
	defer pool.Close()

	for i, b := range bootcamps {
		pool.Submit(func() error {
			bootcamp := &models.Bootcamp{
				ID:            b.ID,
				Name:          b.Name,
				Slug:          slug.Make(b.Name),
				Description:   b.Description,
				Website:       b.Website,
				Phone:         b.Phone,
				Email:         b.Email,
				Careers:       b.Careers,
				Photo:         models.DefaultPhoto,
				Housing:       b.Housing,
				JobAssistance: b.JobAssistance,
				JobGuarantee:  b.JobGuarantee,
				AcceptGi:      b.AcceptGi,
				User:          b.User,
			}
			if s.geo != nil && b.Address != "" {
				loc, err := s.geo.Geocode(ctx, b.Address)
				if err != nil {
					s.logger.Warn().Err(err).Str("bootcamp", b.Name).Msg("failed to geocode address")
				} else {
					bootcamp.Location = loc
				}
			}
			created, err := s.bootcamps.Create(ctx, bootcamp)
			if err != nil {
				return fmt.Errorf("insert bootcamp %s: %w", b.Name, err)
			}
			bootcamps[i].ID = created.ID
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		return err
	}
	s.logger.Info().Int("count", len(bootcamps)).Msg("bootcamps imported")
	return nil
}

func (s *seeder) importCourses(ctx context.Context, courses []seedCourse) error {
	for _, c := range courses {
		_, err := s.courses.Create(ctx, &models.Course{
			ID:                   c.ID,
			Title:                c.Title,
			Description:          c.Description,
			Weeks:                c.Weeks,
			Tuition:              c.Tuition,
			MinimumSkill:         c.MinimumSkill,
			ScholarshipAvailable: c.ScholarshipAvailable,
			Bootcamp:             c.Bootcamp,
			User:                 c.User,
		})
		if err != nil {
			return fmt.Errorf("insert course %s: %w", c.Title, err)
		}
	}
	s.logger.Info().Int("count", len(courses)).Msg("courses imported")
	return nil
}

func (s *seeder) importReviews(ctx context.Context, reviews []seedReview) error {
	for _, r := range reviews {
		_, err := s.reviews.Create(ctx, &models.Review{
			ID:       r.ID,
			Title:    r.Title,
			Text:     r.Text,
			Rating:   r.Rating,
			Bootcamp: r.Bootcamp,
			User:     r.User,
		})
		if err != nil {
			return fmt.Errorf("insert review %s: %w", r.Title, err)
		}
	}
	s.logger.Info().Int("count", len(reviews)).Msg("reviews imported")
	return nil
}
