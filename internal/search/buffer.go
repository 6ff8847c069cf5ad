package search

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// Buffer holds the text of the search input and its cursor. Positions are
// rune indexes.
type Buffer struct {
	runes []rune
	pos   int
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{runes: []rune{}}
}

// NewBufferWithText creates a buffer with initial text and the cursor at the end.
func NewBufferWithText(text string) *Buffer {
	runes := []rune(text)
	return &Buffer{runes: runes, pos: len(runes)}
}

// Text returns the current text content as a string.
func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the length of the text in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Pos returns the current cursor position.
func (b *Buffer) Pos() int {
	return b.pos
}

// SetText replaces the content and moves the cursor to the end.
func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.pos = len(b.runes)
}

// Clear removes all text from the buffer and resets the cursor.
func (b *Buffer) Clear() {
	b.runes = []rune{}
	b.pos = 0
}

// SetPos sets the cursor position, clamped to [0, Len()].
func (b *Buffer) SetPos(pos int) {
	b.pos = clamp(pos, 0, len(b.runes))
}

// CursorStart moves the cursor to the start of the buffer.
func (b *Buffer) CursorStart() {
	b.pos = 0
}

// CursorEnd moves the cursor to the end of the buffer.
func (b *Buffer) CursorEnd() {
	b.pos = len(b.runes)
}

// Insert inserts text at the cursor and moves the cursor past it.
func (b *Buffer) Insert(text string) {
	b.InsertRunes([]rune(text))
}

// InsertRunes inserts runes at the cursor and moves the cursor past them.
func (b *Buffer) InsertRunes(runes []rune) {
	if len(runes) == 0 {
		return
	}

	result := make([]rune, len(b.runes)+len(runes))
	copy(result, b.runes[:b.pos])
	copy(result[b.pos:], runes)
	copy(result[b.pos+len(runes):], b.runes[b.pos:])

	b.runes = result
	b.pos += len(runes)
}

// DeleteCharBackward deletes the character before the cursor.
// Returns true if a character was deleted.
func (b *Buffer) DeleteCharBackward() bool {
	if b.pos == 0 {
		return false
	}
	b.runes = append(b.runes[:b.pos-1], b.runes[b.pos:]...)
	b.pos--
	return true
}

// DeleteCharForward deletes the character at the cursor.
// Returns true if a character was deleted.
func (b *Buffer) DeleteCharForward() bool {
	if b.pos >= len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:b.pos], b.runes[b.pos+1:]...)
	return true
}

// DeleteBeforeCursor deletes all text before the cursor.
func (b *Buffer) DeleteBeforeCursor() {
	b.runes = append([]rune{}, b.runes[b.pos:]...)
	b.pos = 0
}

// DeleteAfterCursor deletes all text after the cursor.
func (b *Buffer) DeleteAfterCursor() {
	b.runes = b.runes[:b.pos]
}

// DeleteWordBackward deletes the word to the left of the cursor.
func (b *Buffer) DeleteWordBackward() {
	oldPos := b.pos
	b.WordBackward()
	b.runes = append(b.runes[:b.pos], b.runes[oldPos:]...)
}

// WordBackward moves the cursor to the start of the previous word.
// A word is a sequence of non-whitespace characters.
func (b *Buffer) WordBackward() {
	i := b.pos - 1
	for i >= 0 && unicode.IsSpace(b.runes[i]) {
		i--
	}
	for i >= 0 && !unicode.IsSpace(b.runes[i]) {
		i--
	}
	b.pos = i + 1
}

// WordForward moves the cursor past the end of the next word.
func (b *Buffer) WordForward() {
	i := b.pos
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.pos = i
}

// TextBeforeCursor returns the text before the cursor.
func (b *Buffer) TextBeforeCursor() string {
	return string(b.runes[:b.pos])
}

// TextAfterCursor returns the text after the cursor.
func (b *Buffer) TextAfterCursor() string {
	return string(b.runes[b.pos:])
}

// CursorColumn returns the terminal column of the cursor relative to the
// start of the text, counting wide characters as two cells.
func (b *Buffer) CursorColumn() int {
	return uniseg.StringWidth(b.TextBeforeCursor())
}

// clamp returns value clamped to the range [low, high].
func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
