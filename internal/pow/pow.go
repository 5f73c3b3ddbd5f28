// Package pow models the Program of Works: the itemized scope-of-work list of
// a contract, and the append-only variation-order snapshots recorded against
// it. Stored POW data arrives in several historical shapes (item objects,
// bare item-number strings, a flat list where a list of lists belongs), so
// normalization is deliberately forgiving.
package pow

import (
	"encoding/json"
	"strings"
)

// Item is one Program of Works line. Quantity and Unit are free-text to match
// the workbook ("1.00", "lot", "sq.m.").
type Item struct {
	ItemNo      string `json:"itemNo"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
}

// UnmarshalJSON accepts either an item object or a bare item-number string,
// the two shapes found in stored data.
func (it *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*it = Item{ItemNo: s}
		return nil
	}
	type alias Item
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*it = Item(a)
	return nil
}

func (it Item) empty() bool {
	return it.ItemNo == "" && it.Description == "" && it.Quantity == "" && it.Unit == ""
}

// Record is the stored POW state of one contract: the current program plus
// every variation-order snapshot taken against it.
type Record struct {
	ProgramWorks    []Item   `json:"programWorks"`
	VariationOrders [][]Item `json:"variationOrders"`
	UpdatedAt       string   `json:"updatedAt"`
}

// Normalize returns a cleaned copy of the record.
func (r Record) Normalize() Record {
	return Record{
		ProgramWorks:    NormalizeItems(r.ProgramWorks),
		VariationOrders: NormalizeVariations(r.VariationOrders),
		UpdatedAt:       r.UpdatedAt,
	}
}

// IsPartHeader reports whether an item number marks a section header
// ("PART I", "Part B", ...). Headers carry no quantity or unit.
func IsPartHeader(itemNo string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(itemNo)), "PART")
}

// NormalizeItems drops all-empty rows and enforces the header rule: items
// whose number starts with "PART" always round-trip with empty quantity and
// unit, whatever the input said.
func NormalizeItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.empty() {
			continue
		}
		if IsPartHeader(item.ItemNo) {
			item.Quantity = ""
			item.Unit = ""
		}
		out = append(out, item)
	}
	return out
}

// NormalizeVariations normalizes each snapshot and drops empty ones.
func NormalizeVariations(orders [][]Item) [][]Item {
	out := make([][]Item, 0, len(orders))
	for _, items := range orders {
		normalized := NormalizeItems(items)
		if len(normalized) > 0 {
			out = append(out, normalized)
		}
	}
	return out
}

// AppendVariation records a new point-in-time snapshot of the current POW.
// Prior snapshots are never touched: both the outer list and the appended
// items are fresh copies.
func AppendVariation(orders [][]Item, snapshot []Item) [][]Item {
	normalized := NormalizeItems(snapshot)
	if len(normalized) == 0 {
		return orders
	}
	out := make([][]Item, 0, len(orders)+1)
	out = append(out, orders...)
	return append(out, append([]Item(nil), normalized...))
}

// DecodeItems reads a POW item list from raw JSON. A JSON string holding an
// encoded list (a shape older clients stored) decodes too. Anything
// unreadable is an empty list.
func DecodeItems(raw json.RawMessage) []Item {
	if len(raw) == 0 {
		return []Item{}
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err == nil {
		return NormalizeItems(items)
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil && encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &items); err == nil {
			return NormalizeItems(items)
		}
	}
	return []Item{}
}

// DecodeVariations reads variation orders from raw JSON. A flat item list is
// read as a single snapshot, the shape stored before snapshots existed.
func DecodeVariations(raw json.RawMessage) [][]Item {
	if len(raw) == 0 {
		return [][]Item{}
	}
	var orders [][]Item
	if err := json.Unmarshal(raw, &orders); err == nil {
		return NormalizeVariations(orders)
	}
	if flat := DecodeItems(raw); len(flat) > 0 {
		return [][]Item{flat}
	}
	return [][]Item{}
}
