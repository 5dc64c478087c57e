package sync

import (
	"fmt"

	"github.com/booksync/backend/internal/domain/integration"
	"github.com/booksync/backend/internal/domain/shared/valueobject"
)

// AllocateSplits distributes a payment's settlement lines into splits.
//
// Credits are applied to invoices greedily and order-preserving: credit
// lines in extraction order, each consumed against invoice lines in
// extraction order, applying min(creditRemaining, invoiceRemaining) and
// decrementing both. A fully consumed line is skipped on later passes.
// Whatever remains open on an invoice after all credits becomes a direct
// cash split. The ordering is a behavioral contract with downstream
// accounting reports; it is intentionally not proportional and not
// largest-first.
func AllocateSplits(items []integration.PaymentItem) ([]integration.PaymentSplit, error) {
	type line struct {
		externalID string
		remaining  valueobject.Money
	}

	var credits, invoices []*line
	for _, item := range items {
		l := &line{externalID: item.DocumentExternalID, remaining: item.Amount}
		switch item.Kind {
		case integration.PaymentItemKindCredit:
			credits = append(credits, l)
		case integration.PaymentItemKindInvoice:
			invoices = append(invoices, l)
		default:
			return nil, fmt.Errorf("sync: unknown payment item kind %q", item.Kind)
		}
	}

	splits := make([]integration.PaymentSplit, 0, len(invoices))

	for _, credit := range credits {
		for _, invoice := range invoices {
			if credit.remaining.IsZero() || credit.remaining.IsNegative() {
				break
			}
			if invoice.remaining.IsZero() || invoice.remaining.IsNegative() {
				continue
			}

			applied, err := credit.remaining.Min(invoice.remaining)
			if err != nil {
				return nil, fmt.Errorf("sync: allocate credit %s to invoice %s: %w", credit.externalID, invoice.externalID, err)
			}

			splits = append(splits, integration.PaymentSplit{
				InvoiceExternalID: invoice.externalID,
				Source:            integration.PaymentSplitSourceCredit,
				CreditExternalID:  credit.externalID,
				Amount:            applied,
			})

			credit.remaining = credit.remaining.MustSubtract(applied)
			invoice.remaining = invoice.remaining.MustSubtract(applied)
		}
	}

	for _, invoice := range invoices {
		if invoice.remaining.IsPositive() {
			splits = append(splits, integration.PaymentSplit{
				InvoiceExternalID: invoice.externalID,
				Source:            integration.PaymentSplitSourceCash,
				Amount:            invoice.remaining,
			})
		}
	}

	return splits, nil
}
