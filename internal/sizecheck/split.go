package sizecheck

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/storage"
)

// SplitResult names the files a mechanical split produced.
type SplitResult struct {
	Backup string   `json:"backup"`
	Parts  []string `json:"parts"`
}

// Split mechanically splits an oversized file on its suggested anchor
// boundaries. The original is backed up first under a timestamped name and
// then replaced by the first part; subsequent parts are written alongside as
// name.part2.ext, name.part3.ext, and so on. Splitting is refused for files
// that are not at error.
func Split(store storage.Provider, relPath string, now time.Time) (*SplitResult, error) {
	data, err := store.Read(relPath)
	if err != nil {
		return nil, err
	}
	if ClassifyLines(CountLines(data)) != models.SizeError {
		return nil, fmt.Errorf("sizecheck: %s is within budget, nothing to split", relPath)
	}
	suggestions := Suggest(relPath, data)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("sizecheck: no split points found for %s", relPath)
	}

	backup := relPath + ".bak-" + now.Format("20060102-150405")
	if err := store.Write(backup, data); err != nil {
		return nil, fmt.Errorf("sizecheck: backup: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)

	res := &SplitResult{Backup: backup}
	start := 0
	cuts := make([]int, 0, len(suggestions)+1)
	for _, s := range suggestions {
		cuts = append(cuts, s.Line-1) // split before the anchor line
	}
	cuts = append(cuts, len(lines))

	for i, cut := range cuts {
		if cut > len(lines) {
			cut = len(lines)
		}
		part := strings.Join(lines[start:cut], "")
		name := relPath
		if i > 0 {
			name = fmt.Sprintf("%s.part%d%s", stem, i+1, ext)
		}
		if err := store.Write(name, []byte(part)); err != nil {
			return nil, fmt.Errorf("sizecheck: write part: %w", err)
		}
		res.Parts = append(res.Parts, name)
		start = cut
	}
	return res, nil
}
