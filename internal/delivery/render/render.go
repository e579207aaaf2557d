// Package render builds the plain-text views shown by the CLI and the bot.
package render

import (
	"fmt"
	"strings"

	"github.com/yourusername/productsync/internal/domain/entity"
)

const (
	EmptyListText = "No products registered"
	SyncedBadge   = "✓ Synced"
	LocalBadge    = "⚠ Local"
)

// Badge status label for p
func Badge(p entity.Product) string {
	if p.Synced() {
		return SyncedBadge
	}
	return LocalBadge
}

// Price formats a price with two decimals
func Price(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Product one product block
func Product(p entity.Product) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s [%s]\n", p.Name, Badge(p)))
	sb.WriteString(fmt.Sprintf("  Price: %s\n", Price(p.Price)))
	if p.Description != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", p.Description))
	}
	sb.WriteString(fmt.Sprintf("  ID: %s", p.ID))
	if p.Synced() {
		sb.WriteString(fmt.Sprintf(" | Server ID: %s", p.ServerID))
	}
	sb.WriteString("\n")

	return sb.String()
}

// ProductList renders the collection, one block per product in order
func ProductList(products []entity.Product) string {
	if len(products) == 0 {
		return EmptyListText + "\n"
	}

	synced := 0
	for _, p := range products {
		if p.Synced() {
			synced++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Products: %d (%d synced, %d local)\n\n", len(products), synced, len(products)-synced))
	for i, p := range products {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(Product(p))
	}
	return sb.String()
}

// SyncReport summarises one synchronization run
func SyncReport(r entity.SyncReport) string {
	var sb strings.Builder

	sb.WriteString("Synchronization completed\n")
	sb.WriteString(fmt.Sprintf("  Pulled: %d\n", r.Pulled))
	sb.WriteString(fmt.Sprintf("  Pushed: %d\n", r.Pushed))
	sb.WriteString(fmt.Sprintf("  Failed: %d\n", r.Failed()))

	for _, f := range r.Failures {
		sb.WriteString(fmt.Sprintf("  - %s (%s): %v\n", f.Name, f.ProductID, f.Err))
	}
	return sb.String()
}
