package gabc

import (
	"fmt"
	"unicode"

	"github.com/FocuswithJustin/gabcly/core/errors"
)

// ErrUnknownClef is wrapped by the error returned when a note's clef is not
// one of the eight recognized clefs, including NoClef. It matches
// errors.ErrUnsupported.
var ErrUnknownClef = errors.Wrap(errors.ErrUnsupported, "unknown clef")

// pitchLadder lists absolute pitches in LilyPond notation from the lowest
// reachable note upward. The top entry is an octave above its neighbour;
// downstream LilyPond files depend on it as emitted.
var pitchLadder = [22]string{
	"a,", "b,", "c", "d", "e", "f", "g", "a", "b", "c'", "d'", "e'", "f'", "g'", "a'",
	"b'", "c''", "d''", "e''", "f''", "g''", "a'''",
}

// clefOffsets gives the ladder index of staff position 'a' under each clef.
var clefOffsets = map[Clef]int{
	ClefC1: 6,
	ClefC2: 4,
	ClefC3: 2,
	ClefC4: 0,
	ClefF1: 9,
	ClefF2: 7,
	ClefF3: 5,
	ClefF4: 3,
}

// AbsolutePitch returns the LilyPond pitch of staff position under clef.
// Position is case-insensitive. An unrecognized clef returns an error
// wrapping ErrUnknownClef; a position outside a-m panics.
func AbsolutePitch(position rune, clef Clef) (string, error) {
	offset, ok := clefOffsets[clef]
	if !ok {
		return "", &errors.UnsupportedError{
			Feature: "clef",
			Reason:  fmt.Sprintf("%q", string(clef)),
			Err:     ErrUnknownClef,
		}
	}
	lower := unicode.ToLower(position)
	if lower < 'a' || lower > 'm' {
		errors.Invariant("staff position %q outside a-m", position)
	}
	index := offset + int(lower-'a')
	if index >= len(pitchLadder) {
		errors.Invariant("staff position %q out of range under clef %s", position, clef)
	}
	return pitchLadder[index], nil
}

// AbsolutePitch returns the note's pitch under the clef it was written with.
func (n Note) AbsolutePitch() (string, error) {
	return AbsolutePitch(n.Position, n.Clef)
}

// IsClef reports whether s names one of the eight recognized clefs.
func IsClef(s string) bool {
	_, ok := clefOffsets[Clef(s)]
	return ok
}
