package grammar

import (
	"testing"
)

// FuzzParseFile checks that the grammar never panics and that every node it
// produces is an exact view of the source.
func FuzzParseFile(f *testing.F) {
	f.Add(populus)
	f.Add("name:Test;\n%%\n(c1) Hel(e.)lo(hi~) (::)")
	f.Add("%%\n")
	f.Add("% comment\n%%\n(f3)a(-h'/i//j)")
	f.Add("key:value with : colon;\n%%\n(c4) 3.(g) Po(h_)")
	f.Add("this is not a gabc file")
	f.Add("%%\n(c3) Po(eh")

	f.Fuzz(func(t *testing.T, src string) {
		root, err := ParseFile("fuzz.gabc", src)
		if err != nil {
			return
		}
		checkSpans(t, src, root)
		for _, c := range root.Children {
			if c.Rule == Syllable && (len(c.Children) == 0 || c.Children[0].Rule != Text) {
				t.Fatalf("syllable at %d does not start with text", c.Offset)
			}
			if c.Rule == Attribute && (c.Child(Key) == nil || c.Child(Value) == nil) {
				t.Fatalf("attribute at %d lacks key or value", c.Offset)
			}
		}
	})
}
