package task

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/tahmid/task-manager-api/internal/store"
)

// Query field names map to bson fields so callers never see storage names.
var sortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// parseListOptions turns GET /tasks query parameters into store options.
// Supported: completed=true|false, sortBy=<field>_asc|desc, limit, skip.
func parseListOptions(q url.Values) (store.ListOptions, error) {
	var opt store.ListOptions

	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opt, errors.New("invalid completed value")
		}
		opt.Completed = &b
	}

	if v := q.Get("sortBy"); v != "" {
		field, dir, ok := strings.Cut(v, "_")
		bsonField, known := sortFields[field]
		if !ok || !known || (dir != "asc" && dir != "desc") {
			return opt, errors.New("invalid sortBy value")
		}
		opt.SortField = bsonField
		opt.SortDesc = dir == "desc"
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return opt, errors.New("invalid limit value")
		}
		opt.Limit = n
	}

	if v := q.Get("skip"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return opt, errors.New("invalid skip value")
		}
		opt.Skip = n
	}

	return opt, nil
}
