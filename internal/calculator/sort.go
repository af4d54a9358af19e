// Package calculator contains the pure computations behind item listings
// and purchases.
package calculator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmynk/streck/internal/models"
)

// SortMode selects the order of an item listing.
type SortMode string

const (
	SortPopular   SortMode = "popular"
	SortCheap     SortMode = "cheap"
	SortExpensive SortMode = "expensive"
	SortNew       SortMode = "new"
	SortOld       SortMode = "old"
	SortNameAsc   SortMode = "name_a2z"
	SortNameDesc  SortMode = "name_z2a"
)

var ErrUnknownSortMode = errors.New("unknown sort order")

var sortModes = []SortMode{SortPopular, SortCheap, SortExpensive, SortNew, SortOld, SortNameAsc, SortNameDesc}

// ParseSortMode parses a sort mode name. An empty name is SortPopular.
func ParseSortMode(name string) (SortMode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SortPopular, nil
	}
	mode := SortMode(name)
	if !slices.Contains(sortModes, mode) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortMode, name)
	}
	return mode, nil
}

// SortItems orders items in place. Every mode breaks ties by popularity,
// then by id.
func SortItems(items []models.ItemWithPrices, mode SortMode) {
	slices.SortStableFunc(items, byPopularity)

	switch mode {
	case SortCheap:
		slices.SortStableFunc(items, func(a, b models.ItemWithPrices) int {
			return lowestPrice(a).Cmp(lowestPrice(b))
		})
	case SortExpensive:
		slices.SortStableFunc(items, func(a, b models.ItemWithPrices) int {
			return lowestPrice(b).Cmp(lowestPrice(a))
		})
	case SortNew:
		slices.SortStableFunc(items, func(a, b models.ItemWithPrices) int {
			return b.CreatedTime.Compare(a.CreatedTime)
		})
	case SortOld:
		slices.SortStableFunc(items, func(a, b models.ItemWithPrices) int {
			return a.CreatedTime.Compare(b.CreatedTime)
		})
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers and are not safe for concurrent use.
		c := collate.New(language.Und, collate.IgnoreCase)
		slices.SortStableFunc(items, func(a, b models.ItemWithPrices) int {
			if mode == SortNameDesc {
				a, b = b, a
			}
			return c.CompareString(a.DisplayName, b.DisplayName)
		})
	}
}

// VisibleOnly returns the items without the invisible flag, keeping order.
func VisibleOnly(items []models.ItemWithPrices) []models.ItemWithPrices {
	visible := make([]models.ItemWithPrices, 0, len(items))
	for _, item := range items {
		if !item.Flags.Invisible {
			visible = append(visible, item)
		}
	}
	return visible
}

func byPopularity(a, b models.ItemWithPrices) int {
	if a.TimesPurchased != b.TimesPurchased {
		if a.TimesPurchased > b.TimesPurchased {
			return -1
		}
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// lowestPrice relies on prices arriving in ascending amount order.
func lowestPrice(item models.ItemWithPrices) decimal.Decimal {
	if len(item.Prices) == 0 {
		return decimal.Zero
	}
	return item.Prices[0].Amount
}
