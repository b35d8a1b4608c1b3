// Package notify delivers dose confirmation emails. Messages are rendered from
// dose.applied events and handed to a Sender, which either writes them to the
// log or delivers them over SMTP.
package notify
