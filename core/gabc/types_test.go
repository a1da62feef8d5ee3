package gabc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/FocuswithJustin/gabcly/core/errors"
)

func TestDocumentJSON(t *testing.T) {
	doc, err := Parse("name:Test;\n%%\n(c1)Po(-h./i)(::)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	want := `{"attributes":[["name","Test"]],"syllables":[` +
		`{"text":"","music":[]},` +
		`{"text":"Po","music":[{"Note":{"prefix":"-","position":"h","suffix":".","current_clef":"c1"}},{"Spacer":"/"},{"Note":{"prefix":"","position":"i","suffix":"","current_clef":"c1"}}]},` +
		`{"text":"","music":[{"Barline":"::"}]}]}`
	if string(data) != want {
		t.Errorf("json.Marshal =\n%s\nwant\n%s", data, want)
	}
}

func TestDocumentAttribute(t *testing.T) {
	doc := &Document{Attributes: []Attribute{
		{Key: "name", Value: "Populus Sion"},
		{Key: "commentary", Value: "first"},
		{Key: "commentary", Value: "second"},
	}}
	if v, ok := doc.Attribute("commentary"); !ok || v != "first" {
		t.Errorf("Attribute(commentary) = %q, %v, want first, true", v, ok)
	}
	if _, ok := doc.Attribute("mode"); ok {
		t.Error("Attribute(mode) found a missing key")
	}
}

func TestSyllableHasNotes(t *testing.T) {
	tests := []struct {
		name  string
		music []Element
		want  bool
	}{
		{"empty", nil, false},
		{"barline only", []Element{Barline(";")}, false},
		{"spacer and barline", []Element{Spacer("/"), Barline("::")}, false},
		{"one note", []Element{Barline(";"), Note{Position: 'g', Clef: ClefC4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Syllable{Music: tt.music}).HasNotes(); got != tt.want {
				t.Errorf("HasNotes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocumentText(t *testing.T) {
	doc, err := Parse(populus)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := doc.Text(), "Pópulus Sion, * ecce"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestDocumentValidate(t *testing.T) {
	good, err := Parse(populus)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	bad, err := Parse("%%\nPo(e)pu(h)(c3)lus(h)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	err = bad.Validate()
	if err == nil {
		t.Fatal("Validate() = nil for notes without a clef")
	}
	if !errors.Is(err, ErrUnknownClef) {
		t.Errorf("Validate() = %v, want ErrUnknownClef", err)
	}
	if n := strings.Count(err.Error(), "no clef set"); n != 2 {
		t.Errorf("Validate() reported %d failures, want 2: %v", n, err)
	}
}
