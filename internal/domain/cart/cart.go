// Package cart implements the in-memory shopping cart of a browsing session.
//
// A Cart is owned by a single session and is not safe for concurrent use.
// Lines are kept in insertion order and a line never has a quantity below 1:
// removing the last unit deletes the line.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/wamenu/internal/domain/menu"
)

// Line is a menu entry with the number of units selected.
type Line struct {
	Entry    menu.Entry
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Entry.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds selected entries keyed by entry ID. The zero value is an empty
// cart ready to use.
type Cart struct {
	lines []Line
	index map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem adds one unit of entry.
func (c *Cart) AddItem(entry menu.Entry) {
	if i, ok := c.index[entry.ID]; ok {
		c.lines[i].Quantity++
		return
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[entry.ID] = len(c.lines)
	c.lines = append(c.lines, Line{Entry: entry, Quantity: 1})
}

// RemoveOneUnit removes one unit of the entry, dropping the line when it
// reaches zero. Unknown IDs are ignored.
func (c *Cart) RemoveOneUnit(entryID string) {
	i, ok := c.index[entryID]
	if !ok {
		return
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, entryID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Entry.ID] = j
	}
}

// QuantityOf returns the units of entryID in the cart, or 0.
func (c *Cart) QuantityOf(entryID string) int {
	if i, ok := c.index[entryID]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// TotalAmount returns the exact sum of price × quantity over all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// LineCount returns the number of distinct entries.
func (c *Cart) LineCount() int {
	return len(c.lines)
}

// TotalUnits returns the number of units across all lines.
func (c *Cart) TotalUnits() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}
