package orders

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/shopward/shopward-backend/pkg/db/models"
)

// csvHeader is the fixed 13-column export layout. Order matters for
// downstream spreadsheet consumers.
var csvHeader = []string{
	"Order Number",
	"Customer Name",
	"Customer Email",
	"Status",
	"Payment Status",
	"Payment Method",
	"Subtotal",
	"Tax",
	"Shipping",
	"Discount",
	"Total",
	"Items Count",
	"Created At",
}

func writeOrdersCSV(rows []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, order := range rows {
		method := "N/A"
		if order.PaymentMethod != nil && *order.PaymentMethod != "" {
			method = *order.PaymentMethod
		}
		record := []string{
			order.OrderNumber,
			order.CustomerName,
			order.CustomerEmail,
			string(order.Status),
			string(order.PaymentStatus),
			method,
			order.Subtotal.StringFixed(2),
			order.Tax.StringFixed(2),
			order.Shipping.StringFixed(2),
			order.Discount.StringFixed(2),
			order.Total.StringFixed(2),
			strconv.Itoa(len(order.Items)),
			order.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
