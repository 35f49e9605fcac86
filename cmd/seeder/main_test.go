package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileMissingIsEmpty(t *testing.T) {
	var users []seedUser
	if err := readFile(t.TempDir(), "users.json", &users); err != nil {
		t.Fatalf("readFile: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("got %d users, want none", len(users))
	}
}

func TestReadFileRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "courses.json"), []byte("[{"), 0o600); err != nil {
		t.Fatal(err)
	}
	var courses []seedCourse
	if err := readFile(dir, "courses.json", &courses); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestSampleDataParses(t *testing.T) {
	dir := filepath.Join("..", "..", "_data")

	var users []seedUser
	var bootcamps []seedBootcamp
	var courses []seedCourse
	var reviews []seedReview
	for name, out := range map[string]any{
		"users.json":     &users,
		"bootcamps.json": &bootcamps,
		"courses.json":   &courses,
		"reviews.json":   &reviews,
	} {
		if err := readFile(dir, name, out); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	if len(users) == 0 || len(bootcamps) == 0 || len(courses) == 0 || len(reviews) == 0 {
		t.Fatalf("sample data incomplete: %d users, %d bootcamps, %d courses, %d reviews",
			len(users), len(bootcamps), len(courses), len(reviews))
	}

	owners := map[string]bool{}
	for _, u := range users {
		owners[u.ID.Hex()] = true
	}
	known := map[string]bool{}
	for _, b := range bootcamps {
		if b.ID.IsZero() {
			t.Fatalf("bootcamp %q has no id", b.Name)
		}
		if !owners[b.User.Hex()] {
			t.Fatalf("bootcamp %q owned by unknown user %s", b.Name, b.User.Hex())
		}
		known[b.ID.Hex()] = true
	}
	for _, c := range courses {
		if !known[c.Bootcamp.Hex()] {
			t.Fatalf("course %q references unknown bootcamp", c.Title)
		}
	}
	for _, r := range reviews {
		if !known[r.Bootcamp.Hex()] || r.Rating < 1 || r.Rating > 10 {
			t.Fatalf("review %q is invalid", r.Title)
		}
	}
}
