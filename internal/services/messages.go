package services

import (
	"fmt"

	"greekledger/internal/core"
)

// Outbound message templates.

const (
	reminderSubject       = "Payment Reminder: Outstanding Dues"
	weeklyReminderSubject = "💰 Payment Reminder: Outstanding Dues"
	lowReserveSubject     = "⚠️ Low Reserve Alert"
	confirmationSubject   = "Payment Received!"
)

func reminderMessage(m core.Member) string {
	return fmt.Sprintf("Hi %s,\n\nThis is a friendly reminder that you have an outstanding balance of $%s.\n\n"+
		"Please make your payment at your earliest convenience.\n\nThank you!", m.FirstName, m.OutstandingBalance)
}

func weeklyReminderMessage(m core.Member) string {
	return fmt.Sprintf("Hi %s,\n\nThis is your weekly reminder that you have an outstanding balance of $%s.\n\n"+
		"Please make your payment as soon as possible.\n\nThank you!", m.FirstName, m.OutstandingBalance)
}

func weeklyDiscordSummary(count int, total core.Money) string {
	return fmt.Sprintf("📊 **Weekly Dues Update**\n\n%d members have outstanding balances\n"+
		"Total outstanding: $%s\n\nPayment reminders have been sent via email and SMS! 💸", count, total)
}

func lowReserveMessage(balance, threshold core.Money) string {
	return fmt.Sprintf("**Alert: Reserve Level Below Threshold**\n\nCurrent Balance: $%s\n"+
		"Minimum Threshold: $%s\n\nConsider reviewing upcoming expenses or collecting outstanding dues.", balance, threshold)
}

func smsReminderMessage(m core.Member, paymentLink string) string {
	msg := fmt.Sprintf("Hi %s! Friendly reminder: You have $%s in outstanding dues.", m.FirstName, m.OutstandingBalance)
	if paymentLink != "" {
		return msg + " Pay easily here: " + paymentLink
	}
	return msg + " Please contact the treasurer to arrange payment."
}

func smsConfirmationMessage(m core.Member, amount core.Money) string {
	return fmt.Sprintf("Thank you, %s! We received your payment of $%s. Your outstanding balance is now $%s.",
		m.FirstName, amount, m.OutstandingBalance)
}

func smsLowReserveMessage(balance, threshold core.Money) string {
	return fmt.Sprintf("⚠️ GreekLedger Alert: Chapter balance ($%s) is below the minimum threshold ($%s). "+
		"Review cash flow projections.", balance, threshold)
}

func paymentReceivedMessage(amount core.Money) string {
	return fmt.Sprintf("Thank you! We received your payment of $%s.", amount)
}
