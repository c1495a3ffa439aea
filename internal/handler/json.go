package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/wamenu/internal/domain/checkout"
	"github.com/xenking/wamenu/internal/domain/menu"
)

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// readBody reads a bounded request body and decodes it as a JSON object.
func readBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest(errors.Wrap(err, "read body"))
	}
	if err := jx.DecodeBytes(data).Obj(field); err != nil {
		return badRequest(err)
	}
	return nil
}

func encodePrice(e *jx.Encoder, p decimal.Decimal) {
	e.Num(jx.Num(p.StringFixed(2)))
}

func encodeRestaurant(e *jx.Encoder, r *menu.Restaurant) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(r.Description) })
		e.Field("address", func(e *jx.Encoder) { e.Str(r.Address) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(r.Phone) })
		e.Field("themeColor", func(e *jx.Encoder) { e.Str(r.EffectiveThemeColor()) })
	})
}

func (h *Handler) encodeEntry(e *jx.Encoder, m menu.Entry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(m.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(m.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(m.Description) })
		e.Field("price", func(e *jx.Encoder) { encodePrice(e, m.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(m.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) {
			if m.ImageRef == "" {
				e.Null()
				return
			}
			e.Str(h.imageURL(m.ImageRef))
		})
		e.Field("available", func(e *jx.Encoder) { e.Bool(m.Available) })
	})
}

func (h *Handler) encodeEntries(e *jx.Encoder, entries []menu.Entry) {
	e.Arr(func(e *jx.Encoder) {
		for _, m := range entries {
			h.encodeEntry(e, m)
		}
	})
}

func encodeCheckout(e *jx.Encoder, c *checkout.Checkout) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
					})
				}
			})
		})
		e.Field("summary", func(e *jx.Encoder) { e.Str(c.Summary) })
		e.Field("total", func(e *jx.Encoder) { e.Str(c.Total) })
		e.Field("units", func(e *jx.Encoder) { e.Int(c.Units) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
		e.Field("message", func(e *jx.Encoder) { e.Str(c.Message) })
		e.Field("url", func(e *jx.Encoder) { e.Str(c.URL) })
	})
}

func decodeItems(d *jx.Decoder) ([]checkout.Item, error) {
	var items []checkout.Item
	err := d.Arr(func(d *jx.Decoder) error {
		var item checkout.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "entryId":
				v, err := d.Str()
				item.EntryID = v
				return err
			case "quantity":
				v, err := d.Int()
				item.Quantity = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func decodeRestaurantField(d *jx.Decoder, key string, r *menu.Restaurant) error {
	var dst *string
	switch key {
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
	return decodeString(d, dst)
}

func decodeEntryField(d *jx.Decoder, key string, m *menu.Entry) error {
	switch key {
	case "name":
		return decodeString(d, &m.Name)
	case "description":
		return decodeString(d, &m.Description)
	case "category":
		return decodeString(d, &m.Category)
	case "imageUrl":
		return decodeString(d, &m.ImageRef)
	case "price":
		p, err := decodeDecimal(d)
		if err != nil {
			return errors.Wrap(err, "price")
		}
		m.Price = p
		return nil
	case "available":
		v, err := d.Bool()
		m.Available = v
		return err
	default:
		return d.Skip()
	}
}

// decodeString reads a string, leaving dst untouched on null.
func decodeString(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, errors.New("expected number")
	}
}
