package domain

import "time"

// Account is the customer record whose email address is subject to the
// confirmation workflow. Email is written by exactly two paths: the interceptor
// reverting it to its prior value, and the resolver committing the approved one.
type Account struct {
	ID                string
	Name              string
	Email             string
	PendingFromTicket bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
