// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

// MailboxOptions configures Mailbox construction. The caller wiring a
// topology builds one mailbox per arrow-to-arrow edge with BuildMailbox,
// from the cardinality of the two arrows it joins; Topology itself does
// not build mailboxes.
type MailboxOptions struct {
	Capacity           int
	Locations          int
	ProducerSequential bool // upstream arrow is a Source/Unfold/Fold (never >1 concurrent worker)
	ConsumerSequential bool // downstream arrow is sequential
	Compact            bool // CAS-based n-slot family instead of FAA-based 2n-slot default
}

// NewMailboxOptions returns options for a mailbox of the given per-location
// capacity with no cardinality constraints (MPMC, the safe default for an
// edge between two parallel arrows).
func NewMailboxOptions(capacity int) MailboxOptions {
	return MailboxOptions{Capacity: capacity, Locations: 1}
}

// BuildMailbox constructs a Mailbox[T] from opts.
func BuildMailbox[T any](opts MailboxOptions) *Mailbox[T] {
	return newMailbox[T](opts.Capacity, opts.Locations, opts.ProducerSequential, opts.ConsumerSequential, opts.Compact)
}
