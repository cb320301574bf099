package scanner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
)

// ChapterDocument is one loaded chapter file. Immutable after load.
type ChapterDocument struct {
	Path      string
	Meta      Meta
	Raw       []byte // full file contents as read from disk
	Body      []byte // contents with frontmatter stripped (same as Raw if none)
	BodyStart int    // byte offset of Body within Raw
	LineCount int

	lineOffsets []int // byte offset of the start of each line in Raw
}

// Meta is the decoded YAML frontmatter of a chapter, if present.
type Meta struct {
	Title   string `yaml:"title"`
	Chapter int    `yaml:"chapter"`
	Status  string `yaml:"status"`
	Draft   bool   `yaml:"draft"`
}

// ReadError marks a file that could not be loaded as valid chapter input.
// It is fatal to that one file only, never to the whole run.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// chapterName matches the book's chapter naming convention: a two-digit
// prefix followed by anything, with a .md extension (e.g. 03-hooks-deep-dive.md).
var chapterName = regexp.MustCompile(`^\d{2}[^/\\]*\.md$`)

// Discover returns the chapter files under dir, sorted by path.
// Non-chapter files (README.md, CLAUDE.md, ...) are ignored.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if chapterName.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads one chapter file into an immutable ChapterDocument.
// The file is treated as opaque text: no Markdown parsing happens here.
func Load(path string) (*ChapterDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return FromBytes(path, raw)
}

// FromBytes builds a ChapterDocument from in-memory content. Used by Load
// and by the HTTP check endpoint, which receives content without a file.
func FromBytes(path string, raw []byte) (*ChapterDocument, error) {
	if !utf8.Valid(raw) {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("content is not valid UTF-8")}
	}

	doc := &ChapterDocument{
		Path: path,
		Raw:  raw,
	}
	doc.Body, doc.BodyStart = splitFrontmatter(raw, &doc.Meta)
	doc.indexLines()
	return doc, nil
}

// splitFrontmatter decodes a leading YAML frontmatter block into meta and
// returns the remaining body plus its byte offset within raw. Malformed
// frontmatter is not a read error: the document is then treated as all body.
func splitFrontmatter(raw []byte, meta *Meta) (body []byte, start int) {
	rest, err := frontmatter.Parse(bytes.NewReader(raw), meta)
	if err != nil {
		*meta = Meta{}
		return raw, 0
	}
	return rest, len(raw) - len(rest)
}

func (d *ChapterDocument) indexLines() {
	d.lineOffsets = append(d.lineOffsets, 0)
	for i, b := range d.Raw {
		if b == '\n' && i+1 < len(d.Raw) {
			d.lineOffsets = append(d.lineOffsets, i+1)
		}
	}
	if len(d.Raw) == 0 {
		d.LineCount = 0
		d.lineOffsets = nil
		return
	}
	d.LineCount = len(d.lineOffsets)
}

// LineAt maps a byte offset within Raw to a 1-based line number.
func (d *ChapterDocument) LineAt(offset int) int {
	if len(d.lineOffsets) == 0 {
		return 1
	}
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(d.lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// Lines returns the raw text split into lines without trailing newlines.
func (d *ChapterDocument) Lines() []string {
	return splitLines(d.Raw)
}

// BodyLines is Lines over the frontmatter-stripped body. Literal scans that
// must not see frontmatter content operate on these.
func (d *ChapterDocument) BodyLines() []string {
	return splitLines(d.Body)
}

func splitLines(src []byte) []string {
	if len(src) == 0 {
		return nil
	}
	var lines []string
	start := 0
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, string(src[start:i]))
			start = i + 1
		}
	}
	if start < len(src) {
		lines = append(lines, string(src[start:]))
	}
	return lines
}
