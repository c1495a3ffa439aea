package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/wamenu/internal/domain/cart"
	"github.com/xenking/wamenu/internal/domain/menu"
)

// ErrEmptyCart is returned when composing a checkout for a cart without
// lines. No link is produced.
var ErrEmptyCart = errors.New("cart is empty")

// Default composer settings.
const (
	DefaultMessagingURL = "https://wa.me"
	DefaultCallingCode  = "212"
	DefaultCurrency     = "€"
)

const (
	summarySeparator = ", "
	messageTemplate  = "Nouvelle commande:\n%s\nTotal: %s%s"
)

// ComposerConfig configures how orders are rendered and addressed.
type ComposerConfig struct {
	// MessagingURL is the deep link base, without trailing slash.
	MessagingURL string
	// CallingCode is the country calling code used by NormalizePhone.
	CallingCode string
	// DefaultPhone is used when the restaurant has no phone number.
	DefaultPhone string
	// Currency is appended to the total in the message.
	Currency string
}

// SummaryLine is one rendered line of the order.
type SummaryLine struct {
	Quantity int
	Name     string
}

func (l SummaryLine) String() string {
	return fmt.Sprintf("%d %s", l.Quantity, l.Name)
}

// Checkout is the order summary handed off to the messaging channel.
type Checkout struct {
	Lines   []SummaryLine
	Summary string
	Amount  decimal.Decimal
	// Total is Amount with exactly two fraction digits.
	Total   string
	Units   int
	Phone   string
	Message string
	URL     string
}

// Composer renders carts into order messages and deep links.
type Composer struct {
	cfg ComposerConfig
}

// NewComposer creates a Composer, filling unset fields with defaults.
func NewComposer(cfg ComposerConfig) *Composer {
	if cfg.MessagingURL == "" {
		cfg.MessagingURL = DefaultMessagingURL
	}
	cfg.MessagingURL = strings.TrimRight(cfg.MessagingURL, "/")
	if cfg.CallingCode == "" {
		cfg.CallingCode = DefaultCallingCode
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &Composer{cfg: cfg}
}

// Compose renders the cart for the restaurant. It returns ErrEmptyCart when
// there is nothing to order.
func (c *Composer) Compose(cr *cart.Cart, r menu.Restaurant) (*Checkout, error) {
	if cr == nil || cr.Empty() {
		return nil, ErrEmptyCart
	}

	lines := cr.Lines()
	summary := make([]SummaryLine, len(lines))
	rendered := make([]string, len(lines))
	for i, l := range lines {
		summary[i] = SummaryLine{Quantity: l.Quantity, Name: l.Entry.Name}
		rendered[i] = summary[i].String()
	}

	amount := cr.TotalAmount()
	total := amount.StringFixed(2)
	text := strings.Join(rendered, summarySeparator)
	message := fmt.Sprintf(messageTemplate, text, total, c.cfg.Currency)
	phone := NormalizePhone(c.phoneOf(r), c.cfg.CallingCode)

	return &Checkout{
		Lines:   summary,
		Summary: text,
		Amount:  amount,
		Total:   total,
		Units:   cr.TotalUnits(),
		Phone:   phone,
		Message: message,
		URL:     c.link(phone, message),
	}, nil
}

func (c *Composer) phoneOf(r menu.Restaurant) string {
	if strings.TrimSpace(r.Phone) == "" {
		return c.cfg.DefaultPhone
	}
	return r.Phone
}

// link builds <base>/<phone>?text=<message> with spaces encoded as %20.
func (c *Composer) link(phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return c.cfg.MessagingURL + "/" + phone + "?text=" + text
}
