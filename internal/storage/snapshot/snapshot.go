// Package snapshot reads restaurant menus from JSON documents.
//
// A snapshot seeds the database and backs the fallback repository when the
// primary store cannot be reached.
package snapshot

import (
	"context"
	_ "embed"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/wamenu/internal/domain/menu"
)

//go:embed default.json
var defaultJSON []byte

// Snapshot is a restaurant together with its full menu.
type Snapshot struct {
	Restaurant menu.Restaurant
	Entries    []menu.Entry
}

var _ menu.Repository = (*Snapshot)(nil)

// Default returns the built-in demo snapshot.
func Default() *Snapshot {
	s, err := Parse(defaultJSON)
	if err != nil {
		panic(errors.Wrap(err, "embedded snapshot"))
	}
	return s
}

// Load reads a snapshot file. Files ending in .gz are decompressed.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return Parse(data)
}

// Parse decodes and validates a JSON snapshot.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "restaurant":
			return decodeRestaurant(d, &s.Restaurant)
		case "entries":
			return d.Arr(func(d *jx.Decoder) error {
				e := menu.Entry{Available: true}
				if err := decodeEntry(d, &e); err != nil {
					return err
				}
				s.Entries = append(s.Entries, e)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Snapshot) validate() error {
	if s.Restaurant.ID == "" || s.Restaurant.Name == "" {
		return errors.New("restaurant id and name are required")
	}
	seen := make(map[string]struct{}, len(s.Entries))
	for i, e := range s.Entries {
		switch {
		case e.ID == "":
			return errors.Errorf("entry %d: id is required", i)
		case e.Name == "" || e.Category == "":
			return errors.Errorf("entry %s: name and category are required", e.ID)
		case e.Price.IsNegative():
			return errors.Errorf("entry %s: negative price", e.ID)
		}
		if _, ok := seen[e.ID]; ok {
			return errors.Errorf("entry %s: duplicate id", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// FetchRestaurant returns the snapshot restaurant when id matches.
func (s *Snapshot) FetchRestaurant(_ context.Context, id string) (*menu.Restaurant, error) {
	if id != s.Restaurant.ID {
		return nil, menu.ErrRestaurantNotFound
	}
	r := s.Restaurant
	return &r, nil
}

// FetchMenu returns the available entries ordered by category.
func (s *Snapshot) FetchMenu(_ context.Context, restaurantID string) ([]menu.Entry, error) {
	if restaurantID != s.Restaurant.ID {
		return nil, nil
	}
	return s.Menu(), nil
}

// Menu returns the available entries ordered by category, keeping the
// snapshot order within a category.
func (s *Snapshot) Menu() []menu.Entry {
	var out []menu.Entry
	for _, e := range s.Entries {
		if e.Available {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b menu.Entry) int {
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

func decodeRestaurant(d *jx.Decoder, r *menu.Restaurant) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "id":
			dst = &r.ID
		case "name":
			dst = &r.Name
		case "description":
			dst = &r.Description
		case "address":
			dst = &r.Address
		case "phone":
			dst = &r.Phone
		case "themeColor":
			dst = &r.ThemeColor
		default:
			return d.Skip()
		}
		return decodeOptString(d, dst)
	})
}

func decodeEntry(d *jx.Decoder, e *menu.Entry) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeOptString(d, &e.ID)
		case "name":
			return decodeOptString(d, &e.Name)
		case "description":
			return decodeOptString(d, &e.Description)
		case "category":
			return decodeOptString(d, &e.Category)
		case "imageUrl":
			return decodeOptString(d, &e.ImageRef)
		case "price":
			p, err := decodePrice(d)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			e.Price = p
			return nil
		case "available":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			e.Available = v
			return nil
		default:
			return d.Skip()
		}
	})
}

// decodePrice reads a decimal given either as a JSON number or a string.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.New("expected number or string")
	}
}

func decodeOptString(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}
