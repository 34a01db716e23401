// ABOUTME: Streaming reader for the health export XML document.
// ABOUTME: Yields one Entry per root child and resynchronises past malformed elements.
package exportxml

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"iter"
	"os"
	"strings"
)

const readBufferSize = 64 << 10

// Entry tag names. The reader resynchronises on these after a malformed element.
const (
	TagRecord  = "Record"
	TagWorkout = "Workout"
)

// Child is a direct child element of an Entry.
type Child struct {
	Tag   string
	Attrs map[string]string
	Text  string
}

// Entry is one element directly under the document root, or a Record nested
// inside such an element.
type Entry struct {
	Tag      string
	Attrs    map[string]string
	Children []Child
	Offset   int64
}

// Attr returns the named attribute.
func (e Entry) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Child returns the first child with the given tag.
func (e Entry) Child(tag string) (Child, bool) {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c, true
		}
	}
	return Child{}, false
}

// Reader streams entries from an export document. A Reader is not safe for
// concurrent iteration.
type Reader struct {
	path string
	root string
	f    *os.File
}

// Open opens the export document at path and checks that it has a root element.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}

	root, err := skipToRoot(newDecoder(f))
	if err != nil {
		_ = f.Close()
		return nil, &FormatError{Path: path, Err: err}
	}

	return &Reader{path: path, root: root, f: f}, nil
}

// Path returns the document path.
func (r *Reader) Path() string {
	return r.path
}

// Root returns the name of the document's root element.
func (r *Reader) Root() string {
	return r.root
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Entries returns a lazy sequence over the document's entries. Each call
// starts again from the beginning of the file.
//
// A malformed element yields an *ElementError and iteration continues at the
// next Record or Workout start tag. Any other error is fatal and ends the
// sequence.
func (r *Reader) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		if _, err := r.f.Seek(0, io.SeekStart); err != nil {
			yield(Entry{}, &FormatError{Path: r.path, Err: err})
			return
		}

		dec := newDecoder(r.f)
		if _, err := skipToRoot(dec); err != nil {
			yield(Entry{}, &FormatError{Path: r.path, Err: err})
			return
		}

		var base int64
		resynced := false
		for {
			resume, done := r.segment(ctx, dec, base, resynced, yield)
			if done {
				return
			}

			next, err := r.nextEntryOffset(resume)
			if err != nil {
				yield(Entry{}, &FormatError{Path: r.path, Err: err})
				return
			}
			if next < 0 {
				return
			}
			if _, err := r.f.Seek(next, io.SeekStart); err != nil {
				yield(Entry{}, &FormatError{Path: r.path, Err: err})
				return
			}
			dec = newDecoder(r.f)
			base = next
			resynced = true
		}
	}
}

// node tracks an open element while an entry is being assembled.
type node struct {
	entry  *Entry
	parent *Entry
	child  int
}

// segment decodes entries until the decoder fails or the document ends.
// It returns the file offset to resynchronise from, or done when iteration
// should stop.
func (r *Reader) segment(ctx context.Context, dec *xml.Decoder, base int64, resynced bool, yield func(Entry, error) bool) (int64, bool) {
	var (
		stack   []node
		pending []*Entry
	)

	for {
		if err := ctx.Err(); err != nil {
			yield(Entry{}, err)
			return 0, true
		}

		before := base + dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, true
			}
			boundary := len(stack) == 0
			// A resynchronised decoder never saw the root start tag, so the
			// closing root tag surfaces as a stray end element.
			if boundary && resynced && isSyntax(err, "unexpected end element") {
				return base + dec.InputOffset(), false
			}
			if boundary && (isSyntax(err, "unexpected EOF") || errors.Is(err, io.ErrUnexpectedEOF)) {
				return 0, true
			}

			elemErr := &ElementError{Offset: before, Err: err}
			if len(pending) > 0 {
				elemErr.Offset = pending[0].Offset
				elemErr.Tag = pending[0].Tag
			}
			if !yield(Entry{}, elemErr) {
				return 0, true
			}
			return max(base+dec.InputOffset(), elemErr.Offset+1), false
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := node{child: -1}
			if len(stack) == 0 {
				n.entry = newEntry(t, before)
				pending = append(pending, n.entry)
			} else if parent := stack[len(stack)-1].entry; parent != nil {
				parent.Children = append(parent.Children, Child{Tag: t.Name.Local, Attrs: attrMap(t.Attr)})
				n.parent = parent
				n.child = len(parent.Children) - 1
				if isEntryTag(t.Name.Local) {
					n.entry = newEntry(t, before)
					pending = append(pending, n.entry)
				}
			}
			stack = append(stack, n)

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if top := stack[len(stack)-1]; top.child >= 0 {
				c := &top.parent.Children[top.child]
				c.Text += string(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				// Root closed.
				return 0, true
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.child >= 0 {
				c := &top.parent.Children[top.child]
				c.Text = strings.TrimSpace(c.Text)
			}
			if len(stack) > 0 {
				continue
			}
			for _, e := range pending {
				if !yield(*e, nil) {
					return 0, true
				}
			}
			pending = pending[:0]
		}
	}
}

// nextEntryOffset scans forward from offset for the next Record or Workout
// start tag. It returns -1 when there is none.
func (r *Reader) nextEntryOffset(offset int64) (int64, error) {
	if _, err := r.f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	br := bufio.NewReaderSize(r.f, readBufferSize)
	pos := offset
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return -1, nil
			}
			return 0, err
		}
		if b == '<' {
			peek, _ := br.Peek(len(TagWorkout) + 1)
			if startsEntryTag(peek) {
				return pos, nil
			}
		}
		pos++
	}
}

func startsEntryTag(p []byte) bool {
	for _, tag := range []string{TagRecord, TagWorkout} {
		if len(p) <= len(tag) || string(p[:len(tag)]) != tag {
			continue
		}
		switch p[len(tag)] {
		case ' ', '\t', '\n', '\r', '>', '/':
			return true
		}
	}
	return false
}

func isEntryTag(name string) bool {
	return name == TagRecord || name == TagWorkout
}

func isSyntax(err error, prefix string) bool {
	var se *xml.SyntaxError
	return errors.As(err, &se) && strings.HasPrefix(se.Msg, prefix)
}

func newDecoder(r io.Reader) *xml.Decoder {
	return xml.NewDecoder(bufio.NewReaderSize(r, readBufferSize))
}

func skipToRoot(dec *xml.Decoder) (string, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no root element")
			}
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func newEntry(se xml.StartElement, offset int64) *Entry {
	return &Entry{
		Tag:    se.Name.Local,
		Attrs:  attrMap(se.Attr),
		Offset: offset,
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}
