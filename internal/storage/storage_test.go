package storage

import (
	"strings"
	"testing"
)

func TestFilterNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{"zero value", Filter{}, Filter{Sort: "updated", Page: 1, PerPage: 20}},
		{"deal sort kept", Filter{Sort: "deal", Page: 3, PerPage: 50}, Filter{Sort: "deal", Page: 3, PerPage: 50}},
		{"unknown sort falls back", Filter{Sort: "price"}, Filter{Sort: "updated", Page: 1, PerPage: 20}},
		{"negative page clamped", Filter{Page: -2, PerPage: -1}, Filter{Sort: "updated", Page: 1, PerPage: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.normalize(); got != tt.want {
				t.Errorf("normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterWhereClause(t *testing.T) {
	t.Run("empty filter has no clause", func(t *testing.T) {
		where, args := Filter{}.whereClause()
		if where != "" || len(args) != 0 {
			t.Errorf("whereClause() = %q with %d args, want empty", where, len(args))
		}
	})

	t.Run("name matches both name columns", func(t *testing.T) {
		where, args := Filter{Name: "catan"}.whereClause()
		if !strings.Contains(where, "a.name ILIKE $1") || !strings.Contains(where, "a.canonical_name ILIKE $1") {
			t.Errorf("whereClause() = %q, want name and canonical_name conditions", where)
		}
		if len(args) != 1 || args[0] != "%catan%" {
			t.Errorf("args = %v, want wildcarded name", args)
		}
	})

	t.Run("name and city combine with AND", func(t *testing.T) {
		where, args := Filter{Name: "catan", City: "lyon"}.whereClause()
		if !strings.Contains(where, " AND ") || !strings.Contains(where, "a.city ILIKE $2") {
			t.Errorf("whereClause() = %q, want ANDed city condition", where)
		}
		if len(args) != 2 || args[1] != "%lyon%" {
			t.Errorf("args = %v, want wildcarded city as second arg", args)
		}
	})
}
