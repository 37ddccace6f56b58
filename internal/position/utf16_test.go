package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUTF16ToByteOffset(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		utf16Col   int
		expectByte int
	}{
		{name: "empty string", s: "", utf16Col: 0, expectByte: 0},
		{name: "ASCII only", s: "color: red", utf16Col: 5, expectByte: 5},
		{name: "beyond end", s: "a{}", utf16Col: 100, expectByte: 3},
		{name: "emoji (surrogate pair)", s: "👍 a", utf16Col: 2, expectByte: 4},
		{name: "inside surrogate pair clamps", s: "👍 a", utf16Col: 1, expectByte: 0},
		{name: "CJK", s: "颜色", utf16Col: 2, expectByte: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectByte, UTF16ToByteOffset(tt.s, tt.utf16Col))
		})
	}
}

func TestByteOffsetToUTF16(t *testing.T) {
	tests := []struct {
		name        string
		s           string
		byteOffset  int
		expectUTF16 int
	}{
		{name: "zero", s: "abc", byteOffset: 0, expectUTF16: 0},
		{name: "ASCII", s: "abc", byteOffset: 2, expectUTF16: 2},
		{name: "past end clamps", s: "abc", byteOffset: 10, expectUTF16: 3},
		{name: "after emoji", s: "/* 👍 */", byteOffset: 7, expectUTF16: 5},
		{name: "middle of rune stops", s: "颜色", byteOffset: 4, expectUTF16: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectUTF16, ByteOffsetToUTF16(tt.s, tt.byteOffset))
		})
	}
}

func TestStringLengthUTF16(t *testing.T) {
	assert.Equal(t, 0, StringLengthUTF16(""))
	assert.Equal(t, 5, StringLengthUTF16(".a{ }"))
	assert.Equal(t, 4, StringLengthUTF16("👍颜色"))
}

func TestOffsetToLineCol(t *testing.T) {
	text := "<style>\n  a { content: \"👍\" }\n</style>"

	tests := []struct {
		name   string
		offset int
		line   uint32
		col    uint32
	}{
		{name: "start", offset: 0, line: 0, col: 0},
		{name: "end of first line", offset: 7, line: 0, col: 7},
		{name: "start of second line", offset: 8, line: 1, col: 0},
		{name: "after emoji", offset: 8 + 20, line: 1, col: 18},
		{name: "inside emoji", offset: 8 + 19, line: 1, col: 16},
		{name: "negative clamps", offset: -3, line: 0, col: 0},
		{name: "past end clamps", offset: len(text) + 5, line: 2, col: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := OffsetToLineCol(text, tt.offset)
			assert.Equal(t, tt.line, line)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestLineColToOffset(t *testing.T) {
	text := "a {\n  b: c;\n}"

	assert.Equal(t, 0, LineColToOffset(text, 0, 0))
	assert.Equal(t, 6, LineColToOffset(text, 1, 2))
	assert.Equal(t, 11, LineColToOffset(text, 1, 99), "column clamps to line end")
	assert.Equal(t, len(text), LineColToOffset(text, 2, 1))
	assert.Equal(t, len(text), LineColToOffset(text, 7, 0), "line past end")
}

func TestOffsetRoundTrip(t *testing.T) {
	text := "é{\n\t👍: 1;\n}\n"
	for _, offset := range []int{0, 2, 3, 4, 5, 9, 10, 13, 14, len(text)} {
		line, col := OffsetToLineCol(text, offset)
		assert.Equal(t, offset, LineColToOffset(text, line, col), "offset %d", offset)
	}
}
