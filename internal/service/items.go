package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// NewListItem returns an incomplete item with a fresh random ID.
func NewListItem(content string) ListItem {
	return ListItem{
		ID:      uuid.NewString(),
		Content: content,
	}
}

// AppendItem returns a new slice with item added at the end.
func AppendItem(items []ListItem, item ListItem) []ListItem {
	result := make([]ListItem, 0, len(items)+1)
	result = append(result, items...)
	return append(result, item)
}

// UpdateItem returns a copy of items with fn applied to the item matching id.
// Items with other IDs are copied unchanged.
func UpdateItem(id string, items []ListItem, fn func(ListItem) ListItem) []ListItem {
	result := make([]ListItem, len(items))
	for i, item := range items {
		if item.ID == id {
			item = fn(item)
		}
		result[i] = item
	}
	return result
}

// MarkItemCompleted sets Completed on the item matching id.
func MarkItemCompleted(id string, items []ListItem) []ListItem {
	return UpdateItem(id, items, func(it ListItem) ListItem {
		it.Completed = true
		return it
	})
}

// MarkItemIncomplete clears Completed on the item matching id.
func MarkItemIncomplete(id string, items []ListItem) []ListItem {
	return UpdateItem(id, items, func(it ListItem) ListItem {
		it.Completed = false
		return it
	})
}

// UpdateItemContent replaces the content of the item matching id.
func UpdateItemContent(id string, items []ListItem, content string) []ListItem {
	return UpdateItem(id, items, func(it ListItem) ListItem {
		it.Content = content
		return it
	})
}

// DeleteItem returns items without the item matching id.
// The result is never nil.
func DeleteItem(id string, items []ListItem) []ListItem {
	result := make([]ListItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			result = append(result, item)
		}
	}
	return result
}

const itemsSchemaURL = "listshare://schema/list-items.json"

const itemsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "content", "completed"],
    "properties": {
      "id": {"type": "string"},
      "content": {"type": "string"},
      "completed": {"type": "boolean"}
    }
  }
}`

var compiledItemsSchema = mustCompileItemsSchema()

func mustCompileItemsSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(itemsSchema))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(itemsSchemaURL, doc); err != nil {
		panic(err)
	}
	return c.MustCompile(itemsSchemaURL)
}

// EncodeItems serializes items for the remote data column.
func EncodeItems(items []ListItem) (string, error) {
	if items == nil {
		items = []ListItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeItems parses the remote data column. An empty column is an empty list.
func DecodeItems(raw string) ([]ListItem, error) {
	if trimmed := strings.TrimSpace(raw); trimmed == "" || trimmed == "null" {
		return []ListItem{}, nil
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid list data: %w", err)
	}
	if err := compiledItemsSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid list data: %w", err)
	}
	var items []ListItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("invalid list data: %w", err)
	}
	if items == nil {
		items = []ListItem{}
	}
	return items, nil
}
