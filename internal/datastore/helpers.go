package datastore

import (
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const defaultLimit = 30

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func jsonOrEmpty(j types.JSONText, empty string) types.JSONText {
	if len(j) == 0 {
		return types.JSONText(empty)
	}
	return j
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}
