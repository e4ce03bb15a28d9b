// Package receipt parses the receipt payload posted by the POS frontend and
// renders it for delivery by email or SMS.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Sentinel errors returned by Parse. Callers map them to client errors.
var (
	ErrInvalidJSON = errors.New("receipt: content is not valid JSON")
	ErrNotObject   = errors.New("receipt: content is not a JSON object")
)

// Item is one line on the receipt. Price and Quantity keep the JSON literal
// so integers and floats print differently (55 vs 40.0).
type Item struct {
	Name     string
	Price    json.Number
	Quantity json.Number
}

// Subtotal returns price × quantity. The caller-supplied numbers have already
// passed schema validation, so parse errors cannot occur here.
func (it Item) Subtotal() float64 {
	p, _ := it.Price.Float64()
	q, _ := it.Quantity.Float64()
	return p * q
}

// Content is the decoded receipt. Total is whatever the client sent; it is
// never reconciled against the item subtotals.
type Content struct {
	Items []Item
	Total json.Number
}

// TotalValue returns Total as a float, 0 when absent.
func (c Content) TotalValue() float64 {
	if c.Total == "" {
		return 0
	}
	f, _ := c.Total.Float64()
	return f
}

// ─── PARSE ────────────────────────────────────────────────────────────────────

// Parse decodes the raw "content" form value. It returns ErrInvalidJSON when
// raw is not a single JSON document and ErrNotObject when the document is a
// list or a scalar. Numbers are kept as json.Number.
func Parse(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	// Trailing data after the first document is rejected.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: extra data after document", ErrInvalidJSON)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// ─── DECODE ───────────────────────────────────────────────────────────────────

const contentSchema = `{
  "type": "object",
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "price", "quantity"],
        "properties": {
          "name":     {"type": "string"},
          "price":    {"type": "number"},
          "quantity": {"type": "integer"}
        }
      }
    },
    "total": {"type": "number"}
  }
}`

var schema = jsonschema.MustCompileString("receipt-content.json", contentSchema)

// Decode validates obj against the receipt schema and converts it into a
// Content. obj must come from Parse so that numbers are json.Number.
// Missing "items" yields an empty list; missing "total" yields 0.
func Decode(obj map[string]any) (Content, error) {
	if err := schema.Validate(obj); err != nil {
		return Content{}, fmt.Errorf("receipt: invalid content: %w", err)
	}

	c := Content{Total: "0"}
	if t, ok := obj["total"].(json.Number); ok {
		c.Total = t
	}

	raw, _ := obj["items"].([]any)
	c.Items = make([]Item, 0, len(raw))
	for _, r := range raw {
		m := r.(map[string]any)
		c.Items = append(c.Items, Item{
			Name:     m["name"].(string),
			Price:    m["price"].(json.Number),
			Quantity: m["quantity"].(json.Number),
		})
	}
	return c, nil
}

// formatNumber prints n the way the POS has always shown it. Integer literals
// print as sent. Anything with a fraction or exponent is a float and prints in
// shortest round-trip form, keeping a trailing ".0" when integral and
// switching to exponent form below 1e-4 or from 1e16: 2.5, 40.0, 1e+21.
func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	dec := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(dec, ".") {
		dec += ".0"
	}
	return dec
}
