package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	// keyDetail matches the DETAIL of a unique violation, e.g.
	// `Key (email)=(ada@example.com) already exists.`
	keyDetail = regexp.MustCompile(`^Key \((.+?)\)=\((.*)\) already exists`)
	// refDetail matches the DETAIL of a foreign key violation, e.g.
	// `Key (category_id)=(c9) is not present in table "categories".`
	refDetail = regexp.MustCompile(`^Key \((.+?)\)=\((.*)\) is not present in table`)
)

// mapErr translates pgx errors into apperr kinds. entity and id are used for
// the not-found message.
func mapErr(err error, op, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Newf(apperr.NotFound, "Cannot find any %s with ID: %s", entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			field, value := duplicateKey(pgErr)
			return apperr.Duplicate(field, value, err)
		case foreignKeyViolation:
			ref, value := missingReference(pgErr)
			return apperr.New(apperr.NotFound, fmt.Sprintf("Cannot find any %s with ID: %s", ref, value), err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// missingReference names the referenced entity from the violating column,
// so category_id becomes "category".
func missingReference(pgErr *pgconn.PgError) (string, string) {
	column, value := pgErr.ColumnName, ""
	if m := refDetail.FindStringSubmatch(pgErr.Detail); m != nil {
		column, value = m[1], m[2]
	}
	ref := strings.ReplaceAll(strings.TrimSuffix(column, "_id"), "_", " ")
	if ref == "" {
		ref = "record"
	}
	return ref, value
}

func duplicateKey(pgErr *pgconn.PgError) (string, string) {
	if m := keyDetail.FindStringSubmatch(pgErr.Detail); m != nil {
		return m[1], m[2]
	}
	return pgErr.ColumnName, ""
}

// jsonArg encodes v for a JSONB parameter. nil pointers become SQL NULL.
func jsonArg(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

// decodeJSON fills dst from a nullable JSONB column.
func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
