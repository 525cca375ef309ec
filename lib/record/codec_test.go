package record

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"Available", Record{ID: 1, Title: "Dune", Author: "Herbert", Category: Fiction, Available: true}},
		{"Borrowed", Record{ID: 2, Title: "SICP", Author: "Abelson", Category: Technology, Holder: strPtr("alice")}},
		{"EmptyHolder", Record{ID: 3, Title: "Cosmos", Author: "Sagan", Category: Science, Holder: strPtr("")}},
		{"Unicode", Record{ID: 1 << 60, Title: "Der Zauberberg ✓", Author: "Thomas Mann", Category: NonFiction, Available: true}},
		{"MaxSize", Record{ID: 5, Title: strings.Repeat("t", MaxSize-fixedSize-4), Author: "", Available: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.record)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(data) != EncodedSize(tt.record) {
				t.Errorf("Expected %d bytes, got %d", EncodedSize(tt.record), len(data))
			}
			if len(data) > MaxSize {
				t.Errorf("Encoded size %d exceeds max size", len(data))
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.record) {
				t.Errorf("Round trip mismatch: expected %v, got %v", tt.record, got)
			}
		})
	}
}

func TestEncodeTooLarge(t *testing.T) {
	r := Record{ID: 1, Title: strings.Repeat("x", MaxSize), Author: "a", Available: true}
	if _, err := Encode(r); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	r = Record{ID: 1, Title: strings.Repeat("t", MaxSize-fixedSize-4), Author: "", Holder: strPtr("bob")}
	if _, err := Encode(r); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge once the holder is added, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := Encode(Record{ID: 7, Title: "Dune", Author: "Herbert", Holder: strPtr("carol")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	mutate := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return f(b)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"ShortHeader", valid[:5]},
		{"Truncated", valid[:len(valid)-1]},
		{"Trailing", append(append([]byte(nil), valid...), 0)},
		{"Version", mutate(func(b []byte) []byte { b[0] = 9; return b })},
		{"Flags", mutate(func(b []byte) []byte { b[1] |= 0x80; return b })},
		{"Category", mutate(func(b []byte) []byte { b[2] = 200; return b })},
		{"TitleLength", mutate(func(b []byte) []byte { b[fixedSize] = 0xFF; return b })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("Expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", Fiction, false},
		{"fiction", Fiction, false},
		{"Non-Fiction", NonFiction, false},
		{"nonfiction", NonFiction, false},
		{"SCIENCE", Science, false},
		{"technology", Technology, false},
		{"poetry", Fiction, true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q): unexpected error state %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, c := range Categories {
		parsed, err := ParseCategory(c.String())
		if err != nil || parsed != c {
			t.Errorf("Expected %v to parse its own name, got %v (%v)", c, parsed, err)
		}
	}
}

func TestRecordJSON(t *testing.T) {
	r := Record{ID: 3, Title: "Cosmos", Author: "Sagan", Category: Science, Holder: strPtr("dave")}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"category":"Science"`) {
		t.Errorf("Expected category as string, got %s", data)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !got.Equal(r) {
		t.Errorf("Expected %v, got %v", r, got)
	}
}

func TestClone(t *testing.T) {
	r := Record{ID: 1, Title: "Dune", Author: "Herbert", Holder: strPtr("erin")}
	c := r.Clone()
	*c.Holder = "frank"

	if r.HolderName() != "erin" {
		t.Errorf("Clone shares the holder with the original")
	}
	if r.Equal(c) {
		t.Errorf("Expected records with different holders to differ")
	}
}
