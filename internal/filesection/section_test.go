package filesection

import "testing"

// memSpan is a minimal ReadWriterAt backed by an in-memory byte slice,
// standing in for a fetched piece buffer the way internal/filestream uses
// one, without pulling that package in (it imports this one).
type memSpan []byte

func (m memSpan) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m[off:])
	return n, nil
}

func (m memSpan) WriteAt(p []byte, off int64) (int, error) {
	return 0, nil
}

var data = []string{"asdf", "a", "", "qwerty"}

func TestSectionsReadAt(t *testing.T) {
	spans := make([]memSpan, len(data))
	for i, s := range data {
		spans[i] = memSpan(s)
	}

	s := Sections{
		{File: spans[0], Offset: 2, Length: 2}, // "df"
		{File: spans[1], Offset: 0, Length: 1}, // "a"
		{File: spans[2], Offset: 0, Length: 0}, // ""
		{File: spans[3], Offset: 0, Length: 2}, // "qw"
	}

	b := make([]byte, 5)
	if err := s.ReadAt(b, 0); err != nil {
		t.Fatal(err)
	}
	if string(b) != "dfaqw" {
		t.Errorf("b = %q", string(b))
	}
}

func TestSectionsReadAtNonZeroOffsetSkipsIntoSection(t *testing.T) {
	spans := make([]memSpan, len(data))
	for i, s := range data {
		spans[i] = memSpan(s)
	}

	s := Sections{
		{File: spans[0], Offset: 2, Length: 2}, // "df"
		{File: spans[1], Offset: 0, Length: 1}, // "a"
		{File: spans[2], Offset: 0, Length: 0}, // ""
		{File: spans[3], Offset: 0, Length: 2}, // "qw"
	}

	b2 := make([]byte, 3)
	if err := s.ReadAt(b2, 2); err != nil {
		t.Fatal(err)
	}
	if string(b2) != "aqw" {
		t.Errorf("b2 = %q", string(b2))
	}
}
