package structure

import (
	"strings"

	"github.com/katalvlaran/voxbrick/brick"
)

// Txt encodes one line per brick in insertion order.
func (s *Structure) Txt() string {
	var sb strings.Builder
	for _, b := range s.bricks {
		sb.WriteString(b.Txt())
	}
	return sb.String()
}

// FromTxt decodes the TXT format. Blank lines are skipped.
func FromTxt(text string, opts ...Option) (*Structure, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	var bricks []brick.Brick
	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, err := brick.ParseTxt(cfg.cat, line)
		if err != nil {
			return nil, &FormatError{Format: FormatTxt, Line: n + 1, Text: line, Err: err}
		}
		bricks = append(bricks, b)
	}
	return &Structure{cfg: cfg, bricks: bricks}, nil
}
