package cashcard

import (
	"math"
	"strconv"
	"strings"
)

// Sortable fields.
const (
	FieldID     = "id"
	FieldAmount = "amount"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one sort key.
type Order struct {
	Field     string
	Direction Direction
}

// PageRequest is the caller-controlled part of a listing.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// Query is a fully bound, owner-scoped listing handed to a Store.
type Query struct {
	Owner  string
	Orders []Order
	Limit  int
	Offset int
}

// DefaultSort applies when a request names no sort keys.
var DefaultSort = []Order{{Field: FieldAmount, Direction: Asc}}

// Planner turns page requests into store queries.
type Planner struct {
	// MaxPageSize clamps Size when positive. Zero means no cap.
	MaxPageSize int
}

// Plan validates req and binds it to owner. owner comes from the verified
// principal; nothing in req can widen or change it. A trailing id ASC key is
// added unless id already participates, so equal amounts still order stably.
func (p Planner) Plan(req PageRequest, owner string) (Query, error) {
	if owner == "" {
		return Query{}, invalid("owner", "must not be empty")
	}
	if req.Page < 0 {
		return Query{}, invalid("page", "must be >= 0, got %d", req.Page)
	}
	if req.Size <= 0 {
		return Query{}, invalid("size", "must be > 0, got %d", req.Size)
	}

	size := req.Size
	if p.MaxPageSize > 0 && size > p.MaxPageSize {
		size = p.MaxPageSize
	}

	if req.Page > math.MaxInt32/size {
		return Query{}, invalid("page", "out of range: %d", req.Page)
	}

	sortKeys := req.Sort
	if len(sortKeys) == 0 {
		sortKeys = DefaultSort
	}

	orders := make([]Order, 0, len(sortKeys)+1)
	seen := make(map[string]bool, len(sortKeys))
	for _, o := range sortKeys {
		field := strings.ToLower(strings.TrimSpace(o.Field))
		if field != FieldID && field != FieldAmount {
			return Query{}, invalid("sort", "unknown field %q", o.Field)
		}
		dir := Direction(strings.ToLower(string(o.Direction)))
		if dir == "" {
			dir = Asc
		}
		if dir != Asc && dir != Desc {
			return Query{}, invalid("sort", "unknown direction %q", o.Direction)
		}
		if seen[field] {
			continue
		}
		seen[field] = true
		orders = append(orders, Order{Field: field, Direction: dir})
	}
	if !seen[FieldID] {
		orders = append(orders, Order{Field: FieldID, Direction: Asc})
	}

	return Query{
		Owner:  owner,
		Orders: orders,
		Limit:  size,
		Offset: req.Page * size,
	}, nil
}

// ParsePageRequest reads page, size and repeated sort=field[,field...][,dir]
// parameters.
// Absent page defaults to 0 and absent size to defaultSize.
func ParsePageRequest(page, size string, sorts []string, defaultSize int) (PageRequest, error) {
	req := PageRequest{Page: 0, Size: defaultSize}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil {
			return PageRequest{}, invalid("page", "not a number: %q", page)
		}
		req.Page = n
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return PageRequest{}, invalid("size", "not a number: %q", size)
		}
		req.Size = n
	}

	for _, raw := range sorts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		orders, err := parseSort(raw)
		if err != nil {
			return PageRequest{}, err
		}
		req.Sort = append(req.Sort, orders...)
	}

	return req, nil
}

// parseSort reads one sort parameter. A trailing asc or desc applies to every
// field before it, so "id,amount,desc" sorts both fields descending. Field
// names are checked later by Plan.
func parseSort(raw string) ([]Order, error) {
	parts := strings.Split(raw, ",")
	dir := Asc
	if last := Direction(strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))); last == Asc || last == Desc {
		dir = last
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil, invalid("sort", "no field in %q", raw)
	}
	orders := make([]Order, 0, len(parts))
	for _, field := range parts {
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, invalid("sort", "empty field in %q", raw)
		}
		orders = append(orders, Order{Field: field, Direction: dir})
	}
	return orders, nil
}
