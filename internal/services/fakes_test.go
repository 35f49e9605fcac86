package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/mailer"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/query"
	"github.com/arzan03/devcamper/internal/repository"
)

var errBoom = errors.New("boom")

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// bootcampScope extracts the bootcamp id a scoped list query filters on.
func bootcampScope(q query.Query) (primitive.ObjectID, bool) {
	id, ok := q.Filter["bootcamp"].(primitive.ObjectID)
	return id, ok
}

type fakeBootcamps struct {
	mu      sync.Mutex
	docs    map[primitive.ObjectID]*models.Bootcamp
	setErr  error
	radius  []float64
	deleted []primitive.ObjectID
}

func newFakeBootcamps() *fakeBootcamps {
	return &fakeBootcamps{docs: map[primitive.ObjectID]*models.Bootcamp{}}
}

func (f *fakeBootcamps) add(b models.Bootcamp) *models.Bootcamp {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Photo == "" {
		b.Photo = models.DefaultPhoto
	}
	f.docs[b.ID] = &b
	return &b
}

func (f *fakeBootcamps) get(id primitive.ObjectID) *models.Bootcamp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

func (f *fakeBootcamps) List(_ context.Context, _ query.Query) ([]models.Bootcamp, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Bootcamp{}
	for _, b := range f.docs {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBootcamps) Get(_ context.Context, id primitive.ObjectID) (*models.Bootcamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBootcamps) CountByOwner(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.docs {
		if b.User == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeBootcamps) Create(_ context.Context, b *models.Bootcamp) (*models.Bootcamp, error) {
	return f.add(*b), nil
}

func (f *fakeBootcamps) Update(
	_ context.Context,
	id primitive.ObjectID,
	p repository.UpdateBootcampParams,
) (*models.Bootcamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Slug != nil {
		b.Slug = *p.Slug
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Location != nil {
		b.Location = p.Location
	}
	if p.Careers != nil {
		b.Careers = *p.Careers
	}
	if p.Housing != nil {
		b.Housing = *p.Housing
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBootcamps) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBootcamps) SetAverageCost(_ context.Context, id primitive.ObjectID, cost *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	b, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.AverageCost = cost
	return nil
}

func (f *fakeBootcamps) SetAverageRating(_ context.Context, id primitive.ObjectID, rating *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	b, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.AverageRating = rating
	return nil
}

func (f *fakeBootcamps) SetPhoto(_ context.Context, id primitive.ObjectID, photo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Photo = photo
	return nil
}

func (f *fakeBootcamps) WithinRadius(_ context.Context, lng, lat, radians float64) ([]models.Bootcamp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.radius = []float64{lng, lat, radians}
	out := []models.Bootcamp{}
	for _, b := range f.docs {
		out = append(out, *b)
	}
	return out, nil
}

type fakeCourses struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Course
}

func newFakeCourses() *fakeCourses {
	return &fakeCourses{docs: map[primitive.ObjectID]*models.Course{}}
}

func (f *fakeCourses) count(bootcampID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.docs {
		if c.Bootcamp == bootcampID {
			n++
		}
	}
	return n
}

func (f *fakeCourses) List(_ context.Context, q query.Query) ([]models.Course, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope, scoped := bootcampScope(q)
	out := []models.Course{}
	for _, c := range f.docs {
		if scoped && c.Bootcamp != scope {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCourses) Get(_ context.Context, id primitive.ObjectID) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) Create(_ context.Context, c *models.Course) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = primitive.NewObjectID()
	f.docs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCourses) Update(
	_ context.Context,
	id primitive.ObjectID,
	p repository.UpdateCourseParams,
) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Tuition != nil {
		c.Tuition = *p.Tuition
	}
	if p.MinimumSkill != nil {
		c.MinimumSkill = *p.MinimumSkill
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeCourses) DeleteByBootcamp(_ context.Context, bootcampID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, c := range f.docs {
		if c.Bootcamp == bootcampID {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCourses) AverageTuition(_ context.Context, bootcampID primitive.ObjectID) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	n := 0
	for _, c := range f.docs {
		if c.Bootcamp == bootcampID {
			sum += c.Tuition
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

type fakeReviews struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{docs: map[primitive.ObjectID]*models.Review{}}
}

func (f *fakeReviews) count(bootcampID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.docs {
		if r.Bootcamp == bootcampID {
			n++
		}
	}
	return n
}

func (f *fakeReviews) List(_ context.Context, q query.Query) ([]models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scope, scoped := bootcampScope(q)
	out := []models.Review{}
	for _, r := range f.docs {
		if scoped && r.Bootcamp != scope {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReviews) Get(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) GetByBootcampAndUser(
	_ context.Context,
	bootcampID, userID primitive.ObjectID,
) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.docs {
		if r.Bootcamp == bootcampID && r.User == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReviews) Create(_ context.Context, r *models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.Bootcamp == r.Bootcamp && existing.User == r.User {
			return nil, repository.ErrDuplicate
		}
	}
	cp := *r
	cp.ID = primitive.NewObjectID()
	f.docs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeReviews) Update(
	_ context.Context,
	id primitive.ObjectID,
	p repository.UpdateReviewParams,
) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Text != nil {
		r.Text = *p.Text
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeReviews) DeleteByBootcamp(_ context.Context, bootcampID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.docs {
		if r.Bootcamp == bootcampID {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeReviews) AverageRating(_ context.Context, bootcampID primitive.ObjectID) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	n := 0
	for _, r := range f.docs {
		if r.Bootcamp == bootcampID {
			sum += float64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

type fakeUsers struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{docs: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) get(id primitive.ObjectID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

func (f *fakeUsers) List(_ context.Context, _ query.Query) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.docs {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.docs {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByResetToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.docs {
		if u.ResetPasswordToken == hashed && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.Email == u.Email {
			return nil, repository.ErrDuplicate
		}
	}
	cp := *u
	cp.ID = primitive.NewObjectID()
	f.docs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) Update(
	_ context.Context,
	id primitive.ObjectID,
	p repository.UpdateUserParams,
) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Email != nil {
		for otherID, other := range f.docs {
			if otherID != id && other.Email == *p.Email {
				return nil, repository.ErrDuplicate
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetResetToken(_ context.Context, id primitive.ObjectID, hashed string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetPasswordToken = hashed
	u.ResetPasswordExpire = &expires
	return nil
}

func (f *fakeUsers) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
	removed []string
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakePhotos) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = buf.Bytes()
	f.types[name] = contentType
	return nil
}

func (f *fakePhotos) Remove(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, name)
	f.removed = append(f.removed, name)
	return nil
}

type fakeGeocoder struct {
	location  *models.Location
	err       error
	addresses []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (*models.Location, error) {
	f.addresses = append(f.addresses, address)
	if f.err != nil {
		return nil, f.err
	}
	return f.location, nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
	html    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(email mailer.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: email.To, subject: email.Subject, body: email.Body, html: email.HTMLBody})
	return nil
}
