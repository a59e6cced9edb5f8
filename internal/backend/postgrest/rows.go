package postgrest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"listshare/internal/service"
)

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// flexTime accepts timestamptz and timestamp renderings. Values without a
// zone are read as UTC.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			*t = flexTime{}
			return nil
		}
		return fmt.Errorf("created_at: %w", err)
	}
	if s == "" {
		*t = flexTime{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("created_at: unrecognized timestamp %q", s)
}

type spaceRow struct {
	ID         flexID   `json:"id"`
	Author     string   `json:"author"`
	SpaceToken string   `json:"space_token"`
	CreatedAt  flexTime `json:"created_at"`
}

func (r spaceRow) toSpace() service.Space {
	return service.Space{
		ID:         string(r.ID),
		Author:     r.Author,
		SpaceToken: r.SpaceToken,
		CreatedAt:  time.Time(r.CreatedAt),
	}
}

type listRow struct {
	ID        flexID          `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Data      json.RawMessage `json:"data"`
	CreatedAt flexTime        `json:"created_at"`
	SpaceID   flexID          `json:"space_id"`
}

func (r listRow) toList() (service.List, error) {
	items, err := decodeData(r.Data)
	if err != nil {
		return service.List{}, fmt.Errorf("list %s: %w", r.ID, err)
	}
	return service.List{
		ID:        string(r.ID),
		Title:     r.Title,
		Slug:      r.Slug,
		Items:     items,
		CreatedAt: time.Time(r.CreatedAt),
		SpaceID:   string(r.SpaceID),
	}, nil
}

func toLists(rows []listRow) ([]service.List, error) {
	lists := make([]service.List, 0, len(rows))
	for _, r := range rows {
		l, err := r.toList()
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, nil
}

type listInsert struct {
	Title   string          `json:"title"`
	Slug    string          `json:"slug"`
	Data    json.RawMessage `json:"data"`
	SpaceID string          `json:"space_id"`
}

type listUpdate struct {
	Title *string         `json:"title,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeData(items []service.ListItem) (json.RawMessage, error) {
	raw, err := service.EncodeItems(items)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// decodeData reads the data column, which text columns return as a JSON
// string holding the array and json columns return inline.
func decodeData(raw json.RawMessage) ([]service.ListItem, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid list data: %w", err)
		}
		return service.DecodeItems(s)
	}
	return service.DecodeItems(trimmed)
}
