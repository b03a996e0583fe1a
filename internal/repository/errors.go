package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/GTDGit/shelf_api/internal/utils"
)

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// invalidID maps PostgreSQL invalid_text_representation (a malformed uuid
// parameter) to utils.ErrInvalidInput. Other errors are returned unchanged.
func invalidID(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
		return fmt.Errorf("%w: malformed id", utils.ErrInvalidInput)
	}
	return err
}

// likePattern escapes LIKE wildcards in s so it matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
