package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bgunnarsson/roomexport/internal/db"
)

type Room struct {
	ID   int    `json:"id" validate:"gte=0"`
	Name string `json:"name" validate:"required"`
}

type Student struct {
	ID       int    `json:"id" validate:"gte=0"`
	Birthday Date   `json:"birthday"`
	Name     string `json:"name" validate:"required"`
	Room     int    `json:"room" validate:"gte=0"`
	Sex      string `json:"sex" validate:"oneof=M F"`
}

// birthdayLayouts are tried in order. Source exports usually carry the
// second, with a zeroed time part.
var birthdayLayouts = []string{
	db.DateLayout,
	"2006-01-02T15:04:05.999999",
}

// Date is a calendar day. It keeps only the date part of whatever the
// source carried.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("birthday must be a string: %w", err)
	}

	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, day := t.Date()
			d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
			return nil
		}
	}
	return fmt.Errorf("birthday %q is not YYYY-MM-DD", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Date) String() string { return d.Format(db.DateLayout) }
