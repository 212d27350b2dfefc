package notification

import (
	"fmt"
	"strings"

	"github.com/apexgas/commerce/internal/order/domain"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
)

func purchaseLabel(rec purchasedomain.Record) string {
	if rec.Type == purchasedomain.RecordTypeSubscription {
		return "Annual Subscription"
	}
	return "Single Purchase"
}

func purchaseReference(rec purchasedomain.Record) string {
	if rec.Type == purchasedomain.RecordTypeSubscription {
		return rec.SubscriptionID
	}
	return rec.OrderID
}

func adminPurchaseAlert(rec purchasedomain.Record, to string) Message {
	info := rec.BusinessInfo
	body := fmt.Sprintf(`New order received.

Order type: %s
Amount: $%s %s
Reference: %s

Company: %s
Contact: %s
Phone: %s
Email: %s
Facility type: %s
Special equipment: %s

Contact the buyer to coordinate delivery.`,
		purchaseLabel(rec),
		domain.CentsToValue(rec.AmountCents),
		rec.Currency,
		purchaseReference(rec),
		info.CompanyName,
		info.ContactName,
		info.PhoneNumber,
		info.BusinessEmail,
		orDash(info.FacilityType),
		yesNo(info.HasSpecialEquipment),
	)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("New %s order - %s", purchaseLabel(rec), info.CompanyName),
		Body:    body,
	}
}

func adminPurchaseSMS(rec purchasedomain.Record, to string) Message {
	info := rec.BusinessInfo
	return Message{
		To: to,
		Body: fmt.Sprintf("New %s order: %s, $%s %s, ref %s. Contact %s at %s.",
			purchaseLabel(rec),
			info.CompanyName,
			domain.CentsToValue(rec.AmountCents),
			rec.Currency,
			purchaseReference(rec),
			info.ContactName,
			info.PhoneNumber,
		),
	}
}

func customerPurchaseReceipt(rec purchasedomain.Record, to string) Message {
	info := rec.BusinessInfo

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", info.ContactName)
	if rec.Type == purchasedomain.RecordTypeSubscription {
		fmt.Fprintf(&sb, "Your annual medical oxygen subscription is active. You will be billed $%s %s per year until canceled.\n\n",
			domain.CentsToValue(rec.AmountCents), rec.Currency)
	} else {
		fmt.Fprintf(&sb, "Your medical oxygen order is confirmed. Amount charged: $%s %s.\n\n",
			domain.CentsToValue(rec.AmountCents), rec.Currency)
	}
	fmt.Fprintf(&sb, "Reference: %s\n\n", purchaseReference(rec))
	fmt.Fprintf(&sb, "Our team will call %s within one business day to schedule delivery to %s.\n",
		info.PhoneNumber, info.CompanyName)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Order confirmed - %s", purchaseLabel(rec)),
		Body:    sb.String(),
	}
}

func customerPurchaseSMS(rec purchasedomain.Record, to string) Message {
	return Message{
		To: to,
		Body: fmt.Sprintf("Your %s order is confirmed ($%s %s). We will call to schedule delivery. Ref %s.",
			purchaseLabel(rec),
			domain.CentsToValue(rec.AmountCents),
			rec.Currency,
			purchaseReference(rec),
		),
	}
}

func adminInquiryAlert(sub purchasedomain.FormSubmission, to string) Message {
	body := fmt.Sprintf(`New inquiry received.

Company: %s
Contact: %s
Phone: %s
Email: %s
Facility type: %s
Special equipment: %s

Message:
%s`,
		sub.CompanyName,
		sub.ContactName,
		sub.PhoneNumber,
		sub.BusinessEmail,
		orDash(sub.FacilityType),
		yesNo(sub.HasSpecialEquipment),
		orDash(sub.Message),
	)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("New inquiry - %s", sub.CompanyName),
		Body:    body,
	}
}

func adminInquirySMS(sub purchasedomain.FormSubmission, to string) Message {
	return Message{
		To: to,
		Body: fmt.Sprintf("New inquiry from %s (%s, %s).",
			sub.CompanyName,
			sub.ContactName,
			sub.PhoneNumber,
		),
	}
}

func customerInquiryAck(sub purchasedomain.FormSubmission, to string) Message {
	return Message{
		To:      to,
		Subject: "We received your inquiry",
		Body: fmt.Sprintf("Hi %s,\n\nThanks for reaching out. Our team will contact you at %s within one business day.\n",
			sub.ContactName, sub.PhoneNumber),
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
