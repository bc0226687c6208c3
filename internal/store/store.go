// Package store implements the domain repositories on PostgreSQL through
// database/sql (pgx stdlib driver). Schema changes live in migrations/ and
// are applied with goose at startup.
package store

import (
	"database/sql"
	"database/sql/driver"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migration files rooted at the directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// jsonValue maps a nullable JSONB column onto a *T.
type jsonValue[T any] struct {
	V *T
}

func (j *jsonValue[T]) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil || data == nil {
		j.V = nil
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	j.V = &v
	return nil
}

func (j jsonValue[T]) Value() (driver.Value, error) {
	if j.V == nil {
		return nil, nil
	}
	data, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// jsonList maps a JSONB array column onto a slice. NULL scans as empty.
type jsonList[T any] []T

func (l *jsonList[T]) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil {
		return err
	}
	*l = jsonList[T]{}
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, (*[]T)(l))
}

func (l jsonList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("store: cannot scan %T into JSON", src)
	}
}

// nullString stores "" as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// placeholders returns "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", from+i)
	}
	return b.String()
}

func anyArgs[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func noRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
