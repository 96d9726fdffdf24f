package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"dairy-backend-go/internal/models"
)

// ContentType is the MIME type of the workbook produced by BillsWorkbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const billsSheet = "Bills"

var billsHeader = []interface{}{
	"bill_id",
	"consumer_name",
	"consumer_email",
	"consumer_phone",
	"subscription",
	"amount",
	"status",
	"due_date",
	"paid_date",
	"payment_method",
	"transaction_id",
}

// BillsWorkbook renders bills as a single-sheet XLSX file.
func BillsWorkbook(bills []*models.BillingView) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), billsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(billsSheet, "A1", &billsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, b := range bills {
		row := billRow(b)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(billsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write bill %s: %w", b.ID, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func billRow(b *models.BillingView) []interface{} {
	var name, email, phone, subscription, paid string
	if b.Consumer != nil {
		name, email, phone = b.Consumer.Name, b.Consumer.Email, b.Consumer.Phone
	}
	if b.Subscription != nil {
		subscription = b.Subscription.Name
	}
	if b.PaidDate != nil {
		paid = b.PaidDate.Format(time.DateOnly)
	}
	return []interface{}{
		b.ID,
		name,
		email,
		phone,
		subscription,
		b.Amount,
		string(b.Status),
		b.DueDate.Format(time.DateOnly),
		paid,
		string(b.PaymentMethod),
		b.TransactionID,
	}
}
