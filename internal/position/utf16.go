// Package position converts between Go byte offsets and LSP positions.
//
// LSP positions are (line, character) pairs where character counts UTF-16
// code units. Style blocks are located by byte offset while scanning, so
// every range handed to the client goes through this package.
package position

import (
	"math"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UTF16ToByteOffset converts a UTF-16 code unit offset within a single line
// to a byte offset. Offsets inside a surrogate pair clamp to the rune start.
func UTF16ToByteOffset(s string, utf16Col int) int {
	if utf16Col <= 0 {
		return 0
	}

	units := 0
	byteOffset := 0

	for byteOffset < len(s) && units < utf16Col {
		r, size := utf8.DecodeRuneInString(s[byteOffset:])
		if r == utf8.RuneError && size == 1 {
			// Invalid UTF-8 byte; treat as single unit and advance by 1 byte
			byteOffset++
			units++
			continue
		}

		runeUTF16Len := utf16.RuneLen(r)
		if runeUTF16Len == 2 && units+1 == utf16Col {
			break
		}

		units += runeUTF16Len
		byteOffset += size
	}

	return byteOffset
}

// ByteOffsetToUTF16 converts a byte offset within a single line to a UTF-16
// code unit offset. It is the inverse of UTF16ToByteOffset.
func ByteOffsetToUTF16(s string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(s) {
		byteOffset = len(s)
	}

	utf16Count := 0
	currentOffset := 0

	for currentOffset < byteOffset {
		r, size := utf8.DecodeRuneInString(s[currentOffset:])
		if r == utf8.RuneError && size == 0 {
			break
		}
		if currentOffset+size > byteOffset {
			break
		}
		utf16Count += utf16.RuneLen(r)
		currentOffset += size
	}
	return utf16Count
}

// StringLengthUTF16 returns the length of a string in UTF-16 code units.
func StringLengthUTF16(s string) int {
	utf16Count := 0
	for _, r := range s {
		utf16Count += utf16.RuneLen(r)
	}
	return utf16Count
}

// OffsetToLineCol maps a byte offset in a multi-line text to a zero-based
// line and UTF-16 column. Offsets past the end clamp to the end of text.
func OffsetToLineCol(text string, offset int) (line, col uint32) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lines := strings.Count(text[:lineStart], "\n")
	return clampUint32(lines), clampUint32(ByteOffsetToUTF16(text[lineStart:offset], offset-lineStart))
}

// LineColToOffset maps a zero-based line and UTF-16 column to a byte offset.
// Lines past the end map to len(text); columns past the end of a line clamp
// to the line end (excluding the newline).
func LineColToOffset(text string, line, col uint32) int {
	offset := 0
	for i := uint32(0); i < line; i++ {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}
		offset += next + 1
	}

	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	return offset + UTF16ToByteOffset(text[offset:offset+lineEnd], int(col))
}

func clampUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}
