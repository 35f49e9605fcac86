package query

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/apperror"
)

var testSchema = Schema{
	"averageCost": Number,
	"housing":     Bool,
	"user":        ObjectID,
}

func TestParseDefaults(t *testing.T) {
	q, err := Parse(map[string]string{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if q.Page != DefaultPage || q.Limit != DefaultLimit {
		t.Errorf("page/limit = %d/%d, want %d/%d", q.Page, q.Limit, DefaultPage, DefaultLimit)
	}
	want := bson.D{{Key: "createdAt", Value: -1}}
	if !reflect.DeepEqual(q.Sort, want) {
		t.Errorf("Sort = %v, want %v", q.Sort, want)
	}
	if len(q.Filter) != 0 {
		t.Errorf("Filter = %v, want empty", q.Filter)
	}
	if len(q.Projection) != 0 {
		t.Errorf("Projection = %v, want empty", q.Projection)
	}
}

func TestParseOperators(t *testing.T) {
	q, err := testSchema.Parse(map[string]string{
		"averageCost[gte]": "5000",
		"averageCost[lt]":  "10000",
		"careers[in]":      "Business, UI/UX",
		"location.state":   "MA",
		"housing":          "true",
		"select":           "name,description",
		"sort":             "-averageCost,name",
		"page":             "2",
		"limit":            "10",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantFilter := bson.M{
		"averageCost":    bson.M{"$gte": 5000.0, "$lt": 10000.0},
		"careers":        bson.M{"$in": bson.A{"Business", "UI/UX"}},
		"location.state": "MA",
		"housing":        true,
	}
	if !reflect.DeepEqual(q.Filter, wantFilter) {
		t.Errorf("Filter = %v, want %v", q.Filter, wantFilter)
	}

	wantProj := bson.D{{Key: "name", Value: 1}, {Key: "description", Value: 1}}
	if !reflect.DeepEqual(q.Projection, wantProj) {
		t.Errorf("Projection = %v, want %v", q.Projection, wantProj)
	}

	wantSort := bson.D{{Key: "averageCost", Value: -1}, {Key: "name", Value: 1}}
	if !reflect.DeepEqual(q.Sort, wantSort) {
		t.Errorf("Sort = %v, want %v", q.Sort, wantSort)
	}

	if q.StartIndex() != 10 || q.EndIndex() != 20 {
		t.Errorf("window = [%d,%d), want [10,20)", q.StartIndex(), q.EndIndex())
	}
}

func TestParseReservedKeysAreNotFilters(t *testing.T) {
	q, err := Parse(map[string]string{"select": "name", "sort": "name", "page": "1", "limit": "5"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.Filter) != 0 {
		t.Fatalf("reserved keys leaked into filter: %v", q.Filter)
	}
}

func TestParseClampsPageAndLimit(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int64
	}{
		{"0", "0", DefaultPage, DefaultLimit},
		{"-3", "-1", DefaultPage, DefaultLimit},
		{"abc", "x", DefaultPage, DefaultLimit},
		{"3", "7", 3, 7},
		{"2", "500", 2, MaxLimit},
		{"92233720368547758", "100", 92233720368547758, MaxLimit},
	}

	for _, tt := range tests {
		q, err := Parse(map[string]string{"page": tt.page, "limit": tt.limit})
		if err != nil {
			t.Fatalf("Parse(%q,%q): %v", tt.page, tt.limit, err)
		}
		if q.Page != tt.wantPage || q.Limit != tt.wantLimit {
			t.Errorf("Parse(%q,%q) = %d/%d, want %d/%d",
				tt.page, tt.limit, q.Page, q.Limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestParseRejectsPageBeyondRange(t *testing.T) {
	tests := []struct{ page, limit string }{
		{"400000000000000000", "25"},
		{"92233720368547759", "100"},
		{"9223372036854775807", "2"},
	}

	for _, tt := range tests {
		q, err := Parse(map[string]string{"page": tt.page, "limit": tt.limit})
		if !apperror.Is(err, apperror.KindBadRequest) {
			t.Errorf("Parse(%q,%q) err = %v, want BadRequest", tt.page, tt.limit, err)
			continue
		}
		if q.StartIndex() != 0 {
			t.Errorf("Parse(%q,%q) returned a window on error", tt.page, tt.limit)
		}
	}
}

func TestParseLargestPageKeepsWindowPositive(t *testing.T) {
	q, err := Parse(map[string]string{"page": "92233720368547758", "limit": "100"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q.StartIndex() < 0 || q.EndIndex() < q.StartIndex() {
		t.Fatalf("window = [%d,%d), want non-negative and ordered", q.StartIndex(), q.EndIndex())
	}
	p := Paginate(q.Page, q.Limit, 10)
	if p.Next != nil || p.Prev == nil {
		t.Fatalf("pagination = %+v, want prev only", p)
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		sel  string
		want []string
	}{
		{"", nil},
		{"name,averageCost", []string{"name", "averageCost"}},
		{"location.city, name", []string{"location", "name"}},
	}

	for _, tt := range tests {
		q, err := Parse(map[string]string{"select": tt.sel})
		if err != nil {
			t.Fatalf("Parse(select=%q): %v", tt.sel, err)
		}
		if got := q.Fields(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Fields(select=%q) = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestParseObjectIDField(t *testing.T) {
	id := primitive.NewObjectID()

	q, err := testSchema.Parse(map[string]string{"user": id.Hex()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q.Filter["user"] != id {
		t.Fatalf("user filter = %v, want %v", q.Filter["user"], id)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown operator":  {"averageCost[ne]": "1"},
		"unclosed bracket":  {"averageCost[gt": "1"},
		"dollar field":      {"$where": "1"},
		"empty operand":     {"averageCost[gt]": ""},
		"not a number":      {"averageCost[gt]": "cheap"},
		"not a bool":        {"housing": "maybe"},
		"bad id":            {"user": "nope"},
		"conflicting ops":   {"averageCost": "1", "averageCost[gt]": "2"},
		"bad sort field":    {"sort": "-$natural"},
		"bad select field":  {"select": "name,$where"},
		"nested brackets":   {"a[gt][lt]": "1"},
		"number in in-list": {"averageCost[in]": "1,two"},
	}

	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := testSchema.Parse(params)
			if !apperror.Is(err, apperror.KindBadRequest) {
				t.Fatalf("err = %v, want BadRequest", err)
			}
		})
	}
}

func TestScopedDoesNotMutateOriginal(t *testing.T) {
	q, _ := Parse(map[string]string{"title": "Front End"})
	id := primitive.NewObjectID()

	scoped := q.Scoped("bootcamp", id)

	if _, ok := q.Filter["bootcamp"]; ok {
		t.Fatal("Scoped mutated the original filter")
	}
	if scoped.Filter["bootcamp"] != id || scoped.Filter["title"] != "Front End" {
		t.Fatalf("scoped filter = %v", scoped.Filter)
	}
}
