package receipt

import (
	"fmt"
	"html"
	"strings"
)

// DefaultCurrency is the label printed before every amount.
const DefaultCurrency = "PHP"

// EmailHTML renders the receipt as the HTML body of the delivery email: one
// table row per item with its subtotal, then the caller-supplied total.
func EmailHTML(c Content, currency string) string {
	var b strings.Builder

	b.WriteString(`
    <h2>Receipt Details</h2>
    <table border="1">
        <tr><th>Item</th><th>Price</th><th>Quantity</th><th>Subtotal</th></tr>
    `)

	for _, it := range c.Items {
		fmt.Fprintf(&b, `
        <tr>
            <td>%s</td>
            <td>%s %s</td>
            <td>%s</td>
            <td>%s %.2f</td>
        </tr>
        `,
			html.EscapeString(it.Name),
			currency, formatNumber(it.Price),
			formatNumber(it.Quantity),
			currency, it.Subtotal(),
		)
	}

	fmt.Fprintf(&b, `
        </table>
        <p><strong>Total Amount: %s %.2f</strong></p>

        <hr>
        <p style="font-size:16px; text-align:center;">
            <strong>Thank you for shopping with us!</strong> <br>
            Visit us again soon! 😊
        </p>
    `, currency, c.TotalValue())

	return b.String()
}

// SMSText renders the receipt as a plain-text message.
func SMSText(c Content, currency string) string {
	var b strings.Builder
	b.WriteString("Receipt Details:\n")
	for _, it := range c.Items {
		fmt.Fprintf(&b, "%s - %s %s x %s\n",
			it.Name, currency, formatNumber(it.Price), formatNumber(it.Quantity))
	}
	fmt.Fprintf(&b, "Total: %s %.2f", currency, c.TotalValue())
	return b.String()
}
