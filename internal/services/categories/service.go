package categories

import (
	"slices"
	"strings"

	"github.com/mcoot/impostor/internal/dependencies/random"
	"github.com/mcoot/impostor/internal/model"
)

// DefaultCatalogue is the set of topic categories offered when none are configured
var DefaultCatalogue = []string{
	"Animals",
	"Food",
	"Countries",
	"Famous People",
	"Movies",
	"Household Items",
	"Sports",
	"Professions",
	"Vehicles",
	"Cities",
	"Brands",
	"Technology",
	"Historical Events",
	"Plants",
	"Clothing",
}

// Service manages which categories are eligible for the next round
type Service struct {
	catalogue []string
}

// New creates a category Service over the given catalogue.
// Blank and duplicate entries are dropped; an empty catalogue falls back to DefaultCatalogue.
func New(catalogue []string) *Service {
	var cleaned []string
	for _, name := range catalogue {
		name = strings.TrimSpace(name)
		if name != "" && !slices.Contains(cleaned, name) {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) == 0 {
		cleaned = slices.Clone(DefaultCatalogue)
	}
	return &Service{catalogue: cleaned}
}

// Catalogue returns every known category in display order
func (c *Service) Catalogue() []string {
	return slices.Clone(c.catalogue)
}

// NewSelection returns a selection with every known category selected
func (c *Service) NewSelection() model.CategorySelection {
	return model.CategorySelection{
		Available: slices.Clone(c.catalogue),
		Selected:  slices.Clone(c.catalogue),
	}
}

// Toggle flips membership of a single category
func (c *Service) Toggle(sel *model.CategorySelection, name string) error {
	if !sel.IsKnown(name) {
		return model.ErrUnknownCategory
	}

	if sel.Contains(name) {
		sel.Selected = slices.DeleteFunc(slices.Clone(sel.Selected), func(s string) bool { return s == name })
		return nil
	}

	// Rebuild from Available so the selection stays in catalogue order
	var selected []string
	for _, known := range sel.Available {
		if known == name || sel.Contains(known) {
			selected = append(selected, known)
		}
	}
	sel.Selected = selected
	return nil
}

// SelectAll selects every known category
func (c *Service) SelectAll(sel *model.CategorySelection) {
	sel.Selected = slices.Clone(sel.Available)
}

// SelectNone clears the selection
func (c *Service) SelectNone(sel *model.CategorySelection) {
	sel.Selected = nil
}

// Pick chooses one selected category uniformly at random
func (c *Service) Pick(sel *model.CategorySelection, rnd random.Random) (string, error) {
	if sel.IsEmpty() {
		return "", model.ErrNoCategories
	}
	return sel.Selected[rnd.Intn(len(sel.Selected))], nil
}
