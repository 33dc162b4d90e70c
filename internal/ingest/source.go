package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/bgunnarsson/roomexport/internal/errs"
)

const (
	CollectionRooms    = "rooms"
	CollectionStudents = "students"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadRooms reads a JSON array of rooms and validates every entry.
func LoadRooms(path string) ([]Room, error) {
	rooms, err := load[Room](path, CollectionRooms)
	if err != nil {
		return nil, err
	}
	for i, r := range rooms {
		if err := validate.Struct(r); err != nil {
			return nil, &errs.IngestionError{Collection: CollectionRooms, Row: i, ID: r.ID, Err: err}
		}
	}
	return rooms, nil
}

// LoadStudents reads a JSON array of students and validates every entry.
func LoadStudents(path string) ([]Student, error) {
	students, err := load[Student](path, CollectionStudents)
	if err != nil {
		return nil, err
	}
	for i, s := range students {
		err := validate.Struct(s)
		if err == nil && s.Birthday.IsZero() {
			err = errors.New("birthday is required")
		}
		if err != nil {
			return nil, &errs.IngestionError{Collection: CollectionStudents, Row: i, ID: s.ID, Err: err}
		}
	}
	return students, nil
}

func load[T any](path, collection string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.IngestionError{Collection: collection, Row: -1, Err: err}
	}
	defer f.Close()

	var out []T
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		return nil, &errs.IngestionError{
			Collection: collection,
			Row:        -1,
			Err:        fmt.Errorf("decode %s: %w", path, err),
		}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
