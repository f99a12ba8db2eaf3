// Package mail delivers the portal's outbound notification email over
// authenticated SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends HTML mail through a single SMTP account.
type Mailer struct {
	host     string
	port     string
	account  string
	password string
	baseURL  string // approval links point here
}

// NewMailer configures a Mailer.  baseURL is the public address of the
// approval page embedded in room-manager emails.
func NewMailer(host, port, account, password, baseURL string) *Mailer {
	return &Mailer{host: host, port: port, account: account, password: password, baseURL: baseURL}
}

// Send delivers one HTML message.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.account)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)

	auth := smtp.PlainAuth("", m.account, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.account, []string{to}, []byte(b.String()))
}

// formatRange renders a millisecond interval for human readers.
func formatRange(startMS, endMS int64) string {
	const layout = "2006-01-02 15:04"
	return time.UnixMilli(startMS).UTC().Format(layout) + " – " + time.UnixMilli(endMS).UTC().Format(layout)
}

// SendSubmitted confirms to the requester that their booking entered the
// approval queue.
func (m *Mailer) SendSubmitted(to string, room uint64, startMS, endMS int64, reason string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; font-size: 14px; color: #333;">
			<h2 style="color: #4CAF50;">Room Booking Request Submitted</h2>
			<p>Your booking for room %d (%s) has been added to the approval queue.</p>
			<p><strong>Reason:</strong> %s</p>
			<p>You will be notified by email once it has been reviewed.</p>
		</div>`, room, formatRange(startMS, endMS), reason)
	return m.Send(to, "Room Booking Request Submitted", body)
}

// SendApproved tells the requester their booking was approved.
func (m *Mailer) SendApproved(to string, room uint64, startMS, endMS int64) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; font-size: 14px; color: #333;">
			<h2 style="color: #4CAF50;">Room Booking Approved</h2>
			<p>Your booking for room %d (%s) has been approved.</p>
		</div>`, room, formatRange(startMS, endMS))
	return m.Send(to, "Room Booking Approved", body)
}

// SendRejected tells the requester their booking was rejected and why.
// detail carries the reviewer's reason, or the bump notice when a
// higher-priority booking displaced this one.
func (m *Mailer) SendRejected(to string, room uint64, startMS, endMS int64, detail string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; font-size: 14px; color: #333;">
			<h2 style="color: #F44336;">Room Booking Rejected</h2>
			<p>Your booking for room %d (%s) has not been approved.</p>
			<p><strong>Reason:</strong> %s</p>
			<p>You may adjust your request and submit it again.</p>
		</div>`, room, formatRange(startMS, endMS), detail)
	return m.Send(to, "Room Booking Rejected", body)
}

// SendApprovalRequest asks a room manager to review a pending booking.
// The embedded links carry a one-time token.
func (m *Mailer) SendApprovalRequest(to string, room uint64, startMS, endMS int64, requester, name, reason, token string) error {
	approve := fmt.Sprintf("%s?token=%s&action=approve", m.baseURL, token)
	reject := fmt.Sprintf("%s?token=%s&action=reject", m.baseURL, token)
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; font-size: 14px; color: #333;">
			<h2 style="color: #4CAF50;">Room Booking Approval Request</h2>
			<p><strong>Room:</strong> %d</p>
			<p><strong>Requested by:</strong> %s (%s)</p>
			<p><strong>Time:</strong> %s</p>
			<p><strong>Reason:</strong> %s</p>
			<p>
				<a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Approve</a>
				&nbsp;&nbsp;
				<a href="%s" style="background-color: #f44336; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Reject</a>
			</p>
		</div>`, room, name, requester, formatRange(startMS, endMS), reason, approve, reject)
	return m.Send(to, "Approval Needed for Room Booking", body)
}
