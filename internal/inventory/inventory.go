// Package inventory discovers site pages and classifies them by path.
package inventory

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/locallmhub/sitekit/internal/models"
	"github.com/locallmhub/sitekit/internal/parser"
	"github.com/locallmhub/sitekit/internal/storage"
)

// AssetsDir is the static asset root, never walked for inventory.
const AssetsDir = "assets"

// Classify maps a leading-slash page path to its kind. It is a pure function
// of the path.
func Classify(path string) models.PageKind {
	switch {
	case path == "/" || path == "/index.html":
		return models.KindHomepage
	case strings.HasPrefix(path, "/documents/"):
		return models.KindDocument
	case strings.HasPrefix(path, "/comparisons/"):
		return models.KindComparison
	default:
		return models.KindOther
	}
}

// Build walks the site root and returns the inventory of HTML pages, sorted
// by path. Pages inside the asset root are ignored. A page whose structured
// data declares dateModified keeps that date as the authored override.
func Build(store storage.Provider, logger *slog.Logger) (*models.Inventory, error) {
	metas, err := store.List("", ".html")
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}

	inv := &models.Inventory{}
	for _, m := range metas {
		if strings.HasPrefix(m.Path, AssetsDir+"/") {
			continue
		}
		path := "/" + m.Path

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("inventory: read failed, skipping page",
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
			continue
		}

		published, modified := parser.DeclaredDates(data)
		inv.Pages = append(inv.Pages, models.Page{
			Path:          path,
			Kind:          Classify(path),
			LastModified:  m.UpdatedAt,
			DatePublished: published,
			DateModified:  modified,
		})
	}

	logger.Debug("inventory: built", slog.Int("pages", len(inv.Pages)))
	return inv, nil
}
