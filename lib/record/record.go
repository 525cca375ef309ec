package record

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Category
// --------------------------------------------------------------------------

// Category is the closed set of record categories. The zero value is Fiction.
type Category uint8

const (
	Fiction Category = iota
	NonFiction
	Science
	Technology
)

// Categories lists all valid categories in encoding order
var Categories = []Category{Fiction, NonFiction, Science, Technology}

func (c Category) String() string {
	switch c {
	case Fiction:
		return "Fiction"
	case NonFiction:
		return "NonFiction"
	case Science:
		return "Science"
	case Technology:
		return "Technology"
	default:
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the defined categories
func (c Category) Valid() bool {
	return c <= Technology
}

// ParseCategory parses a category name (case-insensitive, '-', '_' and ' ' are ignored).
// An empty string yields the default category Fiction.
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	switch normalized {
	case "", "fiction":
		return Fiction, nil
	case "nonfiction":
		return NonFiction, nil
	case "science":
		return Science, nil
	case "technology", "tech":
		return Technology, nil
	default:
		return Fiction, fmt.Errorf("unknown category %q", s)
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// --------------------------------------------------------------------------
// Record
// --------------------------------------------------------------------------

// Record is a single lending item.
// Holder is set if and only if the record is not available.
type Record struct {
	ID        uint64   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Category  Category `json:"category"`
	Available bool     `json:"available"`
	Holder    *string  `json:"holder,omitempty"`
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	if r.Holder != nil {
		holder := *r.Holder
		r.Holder = &holder
	}
	return r
}

// Equal reports whether both records have the same content
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID || r.Title != other.Title || r.Author != other.Author ||
		r.Category != other.Category || r.Available != other.Available {
		return false
	}
	if r.Holder == nil || other.Holder == nil {
		return r.Holder == nil && other.Holder == nil
	}
	return *r.Holder == *other.Holder
}

// HolderName returns the current holder or an empty string if the record is available
func (r Record) HolderName() string {
	if r.Holder == nil {
		return ""
	}
	return *r.Holder
}

func (r Record) String() string {
	status := "available"
	if !r.Available {
		status = "borrowed by " + r.HolderName()
	}
	return fmt.Sprintf("#%d %q by %s [%s] (%s)", r.ID, r.Title, r.Author, r.Category, status)
}
