package htmlutil

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CollapseSpace trims s and replaces every run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ClassMatcher decides whether a <td> with the given class attribute is captured.
type ClassMatcher func(class string) bool

type cellState int

const (
	// looking for the next matching <td>
	stateScanning cellState = iota
	// inside a matching <td>, collecting text
	stateInCell
)

type cellScanner struct {
	match  ClassMatcher
	state  cellState
	nested int
	text   strings.Builder
	// the cell had raw content, even if only whitespace or markup
	filled bool
	cells  []string
}

func (s *cellScanner) startCell(z *html.Tokenizer, hasAttr bool) {
	if s.state == stateInCell {
		s.filled = true
		s.nested++
		return
	}
	class := ""
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "class" {
			class = string(val)
		}
	}
	if s.match(class) {
		s.state = stateInCell
		s.nested = 0
		s.filled = false
		s.text.Reset()
	}
}

func (s *cellScanner) endCell() {
	if s.state != stateInCell {
		return
	}
	if s.nested > 0 {
		s.nested--
		return
	}
	s.emit()
}

func (s *cellScanner) emit() {
	if s.filled {
		s.cells = append(s.cells, CollapseSpace(s.text.String()))
	}
	s.text.Reset()
	s.filled = false
	s.state = stateScanning
}

// ExtractCells returns the text of every <td> whose class attribute satisfies
// match, in document order. Text of nested elements is included, whitespace
// is collapsed. A cell with no content at all is skipped, a cell holding only
// whitespace or markup yields "" so positions in the grid are kept. A cell
// left open at the end of the document is discarded.
func ExtractCells(r io.Reader, match ClassMatcher) ([]string, error) {
	z := html.NewTokenizer(r)
	scanner := &cellScanner{match: match}

	for {
		switch z.Next() {
		case html.ErrorToken:
			err := z.Err()
			if errors.Is(err, io.EOF) {
				return scanner.cells, nil
			}
			return scanner.cells, err
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) == "td" {
				scanner.startCell(z, hasAttr)
			} else if scanner.state == stateInCell {
				scanner.filled = true
			}
		case html.SelfClosingTagToken, html.CommentToken:
			if scanner.state == stateInCell {
				scanner.filled = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "td" {
				scanner.endCell()
			} else if scanner.state == stateInCell {
				scanner.filled = true
			}
		case html.TextToken:
			if scanner.state == stateInCell {
				text := z.Text()
				if len(text) > 0 {
					scanner.filled = true
				}
				scanner.text.Write(text)
			}
		}
	}
}
