package autocomplete

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bastiangx/replserve/internal/utils"
	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/cockroachdb/errors"
)

const sep = string(filepath.Separator)

// Filename completes paths typed inside a string literal. It touches the
// filesystem, so it only runs once completion is explicitly requested.
type Filename struct {
	base
}

func NewFilename() *Filename {
	return &Filename{base{
		name:           "filename",
		locate:         lineparts.CurrentString,
		format:         formatFilename,
		shownBeforeTab: false,
	}}
}

func (s *Filename) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	text := span.Word

	username, _, _ := strings.Cut(text, sep)
	userDir := utils.ExpandUser(username)

	found, err := filepath.Glob(utils.ExpandUser(text + "*"))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %q", text)
	}

	matches := make([]string, 0, len(found))
	for _, f := range found {
		if info, err := os.Stat(f); err == nil && info.IsDir() {
			f += sep
		}
		// keep ~ and ~user as typed rather than the expanded home
		if strings.HasPrefix(text, "~") && strings.HasPrefix(f, userDir) {
			f = username + f[len(userDir):]
		}
		matches = append(matches, f)
	}
	slices.Sort(matches)
	return &Result{Matches: matches, Span: span}, nil
}

// formatFilename shows the last path component, keeping the trailing
// separator of a directory.
func formatFilename(filename string) string {
	if filename == "" {
		return filename
	}
	if i := strings.LastIndex(filename[:len(filename)-1], sep); i >= 0 {
		return filename[i+1:]
	}
	return filename
}
