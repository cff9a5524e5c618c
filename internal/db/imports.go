package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ResolveJunction returns the junction_id whose id or name matches the given
// fragment, preferring the most recently updated recording.
func ResolveJunction(ctx context.Context, db *sql.DB, fragment string) (string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", fmt.Errorf("junction is required")
	}
	q := `
SELECT junction_id
FROM junctions
WHERE junction_id = $1 OR name ILIKE '%' || $1 || '%'
ORDER BY (junction_id = $1) DESC, updated_at DESC
LIMIT 1`
	var id sql.NullString
	if err := db.QueryRowContext(ctx, q, fragment).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: no junction like %q", ErrUnknownJunction, fragment)
		}
		return "", err
	}
	if !id.Valid || id.String == "" {
		return "", fmt.Errorf("empty junction_id for %q", fragment)
	}
	return id.String, nil
}
