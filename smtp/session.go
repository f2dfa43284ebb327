// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

// Session holds the per-connection mail-transaction state a
// [*Worker] tracks:
// an optional MAIL FROM mailbox and the set of RCPT TO mailboxes
// accumulated since the last reset.
type Session struct {
	MailFrom *Mailbox
	RcptTo   map[Mailbox]struct{}
}

// Reset clears the transaction state.
func (s *Session) Reset() {
	s.MailFrom = nil
	s.RcptTo = nil
}

// AddRcpt records mailbox as a recipient of the in-progress
// transaction.
func (s *Session) AddRcpt(mailbox Mailbox) {
	if s.RcptTo == nil {
		s.RcptTo = make(map[Mailbox]struct{})
	}
	s.RcptTo[mailbox] = struct{}{}
}
