package bencode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustDecode(t *testing.T, s string) *DecodedFile {
	t.Helper()
	d, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("unexpected error decoding %q: %v", s, err)
	}
	return d
}

func TestDecodeInteger(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"i4e", 4, false},
		{"i0e", 0, false},
		{"i-4e", -4, false},
		{"ie", 0, true},
		{"i-e", 0, true},
		{"i-0e", 0, true},
		{"i04e", 0, true},
		{"i4", 0, true},
	}
	for _, c := range cases {
		d, err := Decode([]byte(c.in))
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		if assert.NoError(t, err, c.in) {
			assert.Equal(t, KindInteger, d.Root.Kind)
			assert.Equal(t, c.want, d.Root.Int)
		}
	}
}

func TestDecodeBytestring(t *testing.T) {
	d := mustDecode(t, "4:spam")
	assert.Equal(t, KindBytestring, d.Root.Kind)
	assert.Equal(t, "spam", string(d.Root.Bytes))

	d = mustDecode(t, "0:")
	assert.Equal(t, "", string(d.Root.Bytes))

	_, err := Decode([]byte("5:spam"))
	assert.Error(t, err)
}

func TestDecodeListAndDict(t *testing.T) {
	d := mustDecode(t, "l4:spam4:eggse")
	assert.Equal(t, KindList, d.Root.Kind)
	assert.Len(t, d.Root.List, 2)
	assert.Equal(t, "spam", string(d.Root.List[0].Bytes))

	d = mustDecode(t, "d3:cow3:moo4:spam4:eggse")
	assert.Equal(t, KindDictionary, d.Root.Kind)
	v, ok := d.Root.Get("cow")
	assert.True(t, ok)
	assert.Equal(t, "moo", string(v.Bytes))
}

func TestDecodeEmbeddedLists(t *testing.T) {
	d := mustDecode(t, "lli1eeli2eee")
	assert.Equal(t, KindList, d.Root.Kind)
	assert.Len(t, d.Root.List, 2)
	assert.Equal(t, KindList, d.Root.List[0].Kind)
	assert.Equal(t, int64(1), d.Root.List[0].List[0].Int)
	assert.Equal(t, int64(2), d.Root.List[1].List[0].Int)
}

func TestTrailingBytesRejected(t *testing.T) {
	_, err := Decode([]byte("i1ei2e"))
	assert.Error(t, err)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, Trailing, de.Kind)
}

func TestUnexpectedEof(t *testing.T) {
	_, err := Decode([]byte("d3:foo"))
	assert.Error(t, err)
	var de *DecodeError
	if assert.ErrorAs(t, err, &de) {
		assert.Equal(t, UnexpectedEof, de.Kind)
	}
}

func TestBadKeyType(t *testing.T) {
	_, err := Decode([]byte("di1e3:fooe"))
	assert.Error(t, err)
	var de *DecodeError
	if assert.ErrorAs(t, err, &de) {
		assert.Equal(t, BadKeyType, de.Kind)
	}
}

func TestDepthLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteByte('l')
	}
	for i := 0; i < 10; i++ {
		b.WriteByte('e')
	}
	_, err := DecodeWithOptions([]byte(b.String()), Options{MaxDepth: 5})
	assert.Error(t, err)
	var de *DecodeError
	if assert.ErrorAs(t, err, &de) {
		assert.Equal(t, DepthLimit, de.Kind)
	}
}

func TestInfoRangeCapture(t *testing.T) {
	// d8:announce10:http://t/a4:infod6:lengthi5e4:name5:helloee
	input := "d8:announce10:http://t/a4:infod6:lengthi5e4:name5:helloee"
	d := mustDecode(t, input)
	assert.True(t, d.HasInfo())
	infoBytes := input[d.InfoBegin:d.InfoEnd]
	assert.Equal(t, "d6:lengthi5e4:name5:helloe", infoBytes)
}

func TestInfoRangeOnlyCapturedAtTopLevel(t *testing.T) {
	// "info" appearing nested inside a list must not be captured.
	input := "d4:listl4:infoee"
	d := mustDecode(t, input)
	assert.False(t, d.HasInfo())
}

func TestInfoRangeAbsentWhenNoInfoKey(t *testing.T) {
	d := mustDecode(t, "d8:announce10:http://t/ae")
	assert.False(t, d.HasInfo())
}

func TestInfoRangeFirstDuplicateWins(t *testing.T) {
	input := "d4:infoi1e4:infoi2ee"
	d := mustDecode(t, input)
	assert.True(t, d.HasInfo())
	assert.Equal(t, "i1e", input[d.InfoBegin:d.InfoEnd])
}

func TestDictPreservesSourceOrderAndDuplicates(t *testing.T) {
	d := mustDecode(t, "d8:announce3:one8:announce3:twoe")
	assert.Equal(t, 2, d.Root.Count("announce"))
	assert.Equal(t, "one", string(d.Root.Dict[0].Value.Bytes))
	assert.Equal(t, "two", string(d.Root.Dict[1].Value.Bytes))
}
