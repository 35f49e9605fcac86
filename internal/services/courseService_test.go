package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/apperror"
	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/models"
)

func TestUpdateCourseOwnership(t *testing.T) {
	tests := []struct {
		name       string
		actor      func(f *aggregateFixture) auth.Actor
		authorized bool
	}{
		{"stranger publisher", func(*aggregateFixture) auth.Actor {
			return auth.Actor{ID: primitive.NewObjectID(), Role: models.RolePublisher}
		}, false},
		{"stranger user", func(*aggregateFixture) auth.Actor {
			return auth.Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
		}, false},
		{"owner", func(f *aggregateFixture) auth.Actor { return f.owner }, true},
		{"admin", func(*aggregateFixture) auth.Actor {
			return auth.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name+" update", func(t *testing.T) {
			ctx := context.Background()
			f := newAggregateFixture()
			course := f.addCourse(t, 8000)
			tuition := 12000.0

			updated, err := f.courseSvc.Update(ctx, tt.actor(f), course.ID.Hex(), UpdateCourseInput{Tuition: &tuition})
			if !tt.authorized {
				if !apperror.Is(err, apperror.KindUnauthorized) {
					t.Fatalf("err = %v, want unauthorized", err)
				}
				if got, _ := f.courses.Get(ctx, course.ID); got.Tuition != 8000 {
					t.Fatalf("tuition changed to %v by %s", got.Tuition, tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if updated.Tuition != 12000 {
				t.Errorf("tuition = %v, want 12000", updated.Tuition)
			}
			if got := f.bootcamps.get(f.bootcamp.ID).AverageCost; got == nil || *got != 12000 {
				t.Errorf("averageCost = %v, want 12000", got)
			}
		})

		t.Run(tt.name+" delete", func(t *testing.T) {
			ctx := context.Background()
			f := newAggregateFixture()
			course := f.addCourse(t, 8000)

			err := f.courseSvc.Delete(ctx, tt.actor(f), course.ID.Hex())
			if !tt.authorized {
				if !apperror.Is(err, apperror.KindUnauthorized) {
					t.Fatalf("err = %v, want unauthorized", err)
				}
				if f.courses.count(f.bootcamp.ID) != 1 {
					t.Fatalf("course deleted by %s", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if f.courses.count(f.bootcamp.ID) != 0 {
				t.Fatal("course still present")
			}
			if got := f.bootcamps.get(f.bootcamp.ID).AverageCost; got != nil {
				t.Errorf("averageCost = %v, want unset", *got)
			}
		})
	}
}

func TestCourseAndReviewNotFound(t *testing.T) {
	ctx := context.Background()
	f := newAggregateFixture()
	admin := auth.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	tuition := 9000.0
	rating := 9

	ops := map[string]func(id string) error{
		"get course": func(id string) error {
			_, err := f.courseSvc.Get(ctx, id)
			return err
		},
		"update course": func(id string) error {
			_, err := f.courseSvc.Update(ctx, admin, id, UpdateCourseInput{Tuition: &tuition})
			return err
		},
		"delete course": func(id string) error {
			return f.courseSvc.Delete(ctx, admin, id)
		},
		"get review": func(id string) error {
			_, err := f.reviewSvc.Get(ctx, id)
			return err
		},
		"update review": func(id string) error {
			_, err := f.reviewSvc.Update(ctx, admin, id, UpdateReviewInput{Rating: &rating})
			return err
		},
		"delete review": func(id string) error {
			return f.reviewSvc.Delete(ctx, admin, id)
		},
	}
	ids := map[string]string{
		"unknown id":   primitive.NewObjectID().Hex(),
		"malformed id": "not-an-id",
	}

	for opName, op := range ops {
		for idName, id := range ids {
			t.Run(opName+" "+idName, func(t *testing.T) {
				if err := op(id); !apperror.Is(err, apperror.KindNotFound) {
					t.Fatalf("err = %v, want not found", err)
				}
			})
		}
	}
	if f.aggregates.Failures() != 0 {
		t.Fatalf("aggregate failures = %d, want 0", f.aggregates.Failures())
	}
}
