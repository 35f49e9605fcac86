// Package query turns collection-listing query strings into MongoDB filters,
// projections, sort orders and page windows.
//
// Filter keys are either a plain field name (equality) or a field name with
// an operator suffix in brackets: averageCost[lte]=10000, careers[in]=UI/UX,Business.
package query

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/apperror"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 25
	// MaxLimit caps the page size a client may request.
	MaxLimit int64 = 100

	// DefaultSortField is sorted descending when no sort is requested.
	DefaultSortField = "createdAt"
)

var reservedKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

var (
	keyPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)(?:\[([A-Za-z]+)\])?$`)
	fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// FieldType tells the translator how to decode a filter value.
type FieldType int

const (
	String FieldType = iota
	Number
	Bool
	Time
	ObjectID
)

// Schema maps field names to their types. Fields missing from the schema
// are filtered as strings.
type Schema map[string]FieldType

// Query is a translated listing request, ready to run.
type Query struct {
	Filter     bson.M
	Projection bson.D
	Sort       bson.D
	Page       int64
	Limit      int64
}

// StartIndex is the number of documents skipped before the page.
func (q Query) StartIndex() int64 { return (q.Page - 1) * q.Limit }

// EndIndex is the index one past the last document of the page.
func (q Query) EndIndex() int64 { return q.Page * q.Limit }

// Fields returns the top-level fields kept by select, or nil when whole
// documents are returned.
func (q Query) Fields() []string {
	if len(q.Projection) == 0 {
		return nil
	}
	fields := make([]string, 0, len(q.Projection))
	for _, e := range q.Projection {
		top, _, _ := strings.Cut(e.Key, ".")
		fields = append(fields, top)
	}
	return fields
}

// Scoped returns a copy of q with an extra equality condition, used to
// restrict a listing to one parent document.
func (q Query) Scoped(field string, value any) Query {
	filter := make(bson.M, len(q.Filter)+1)
	for k, v := range q.Filter {
		filter[k] = v
	}
	filter[field] = value
	q.Filter = filter
	return q
}

// Parse translates params using an empty schema.
func Parse(params map[string]string) (Query, error) {
	return Schema(nil).Parse(params)
}

// Parse translates raw query parameters into a Query.
func (s Schema) Parse(params map[string]string) (Query, error) {
	q := Query{
		Filter: bson.M{},
		Page:   positiveOr(params["page"], DefaultPage),
		Limit:  min(positiveOr(params["limit"], DefaultLimit), MaxLimit),
	}
	if q.Page > math.MaxInt64/q.Limit {
		return Query{}, apperror.BadRequest("Page %d is out of range", q.Page)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !reservedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := s.addFilter(q.Filter, key, params[key]); err != nil {
			return Query{}, err
		}
	}

	projection, err := parseSelect(params["select"])
	if err != nil {
		return Query{}, err
	}
	q.Projection = projection

	order, err := parseSort(params["sort"])
	if err != nil {
		return Query{}, err
	}
	q.Sort = order

	return q, nil
}

func (s Schema) addFilter(filter bson.M, key, raw string) error {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return apperror.BadRequest("Invalid filter key %q", key)
	}
	field, op := m[1], m[2]

	if op == "" {
		if _, exists := filter[field]; exists {
			return apperror.BadRequest("Conflicting filters on field %q", field)
		}
		v, err := s.decode(field, raw)
		if err != nil {
			return err
		}
		filter[field] = v
		return nil
	}

	mongoOp, ok := operators[strings.ToLower(op)]
	if !ok {
		return apperror.BadRequest("Unsupported operator %q on field %q", op, field)
	}
	if raw == "" {
		return apperror.BadRequest("Missing value for %s[%s]", field, op)
	}

	var value any
	if mongoOp == "$in" {
		parts := strings.Split(raw, ",")
		values := make(bson.A, 0, len(parts))
		for _, p := range parts {
			v, err := s.decode(field, strings.TrimSpace(p))
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		value = values
	} else {
		v, err := s.decode(field, raw)
		if err != nil {
			return err
		}
		value = v
	}

	switch existing := filter[field].(type) {
	case nil:
		filter[field] = bson.M{mongoOp: value}
	case bson.M:
		existing[mongoOp] = value
	default:
		return apperror.BadRequest("Conflicting filters on field %q", field)
	}
	return nil
}

func (s Schema) decode(field, raw string) (any, error) {
	switch s[field] {
	case Number:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperror.BadRequest("Field %q expects a number, got %q", field, raw)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperror.BadRequest("Field %q expects a boolean, got %q", field, raw)
		}
		return b, nil
	case Time:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if d, dErr := time.Parse(time.DateOnly, raw); dErr == nil {
				return d, nil
			}
			return nil, apperror.BadRequest("Field %q expects an RFC 3339 time, got %q", field, raw)
		}
		return t, nil
	case ObjectID:
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, apperror.BadRequest("Field %q expects an id, got %q", field, raw)
		}
		return id, nil
	default:
		return raw, nil
	}
}

func parseSelect(raw string) (bson.D, error) {
	fields, err := splitFields(raw)
	if err != nil {
		return nil, err
	}
	projection := make(bson.D, 0, len(fields))
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	return projection, nil
}

func parseSort(raw string) (bson.D, error) {
	if strings.TrimSpace(raw) == "" {
		return bson.D{{Key: DefaultSortField, Value: -1}}, nil
	}

	order := bson.D{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if !fieldPattern.MatchString(part) {
			return nil, apperror.BadRequest("Invalid sort field %q", part)
		}
		order = append(order, bson.E{Key: part, Value: dir})
	}
	if len(order) == 0 {
		return bson.D{{Key: DefaultSortField, Value: -1}}, nil
	}
	return order, nil
}

func splitFields(raw string) ([]string, error) {
	var fields []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !fieldPattern.MatchString(part) {
			return nil, apperror.BadRequest("Invalid select field %q", part)
		}
		fields = append(fields, part)
	}
	return fields, nil
}

func positiveOr(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}
