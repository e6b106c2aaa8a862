// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package router

// Flags holds the per-subscription option bits.
type Flags byte

const (
	// FlagShared marks a subscription made through a $share group.
	FlagShared Flags = 1 << iota
	// FlagRetainAsPublished keeps the original retain flag on delivery.
	FlagRetainAsPublished
	// FlagNoLocal suppresses delivery of the client's own publications.
	FlagNoLocal
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Topic is a topic filter as requested in a SUBSCRIBE packet.
type Topic struct {
	SubscriptionID *uint32 // MQTT 5 only
	Filter         string
	QoS            byte
}

// Subscriber is one subscription stored in the tree.
//
// Entries are never modified once stored. Re-subscribing replaces the stored
// pointer, so readers may keep using an entry after releasing a lock.
type Subscriber struct {
	SubscriptionID *uint32
	ClientID       string
	SharedName     string
	// TopicFilter is only set on shared subscriptions handed out by lookups.
	TopicFilter string
	QoS         byte
	Flags       Flags
}

// IsShared returns true if the subscription belongs to a shared group.
func (s *Subscriber) IsShared() bool {
	return s.SharedName != ""
}

func (s *Subscriber) sameIdentity(clientID, sharedName string) bool {
	return s.ClientID == clientID && s.SharedName == sharedName
}

func (s *Subscriber) equal(o *Subscriber) bool {
	if !s.sameIdentity(o.ClientID, o.SharedName) || s.QoS != o.QoS || s.Flags != o.Flags {
		return false
	}
	switch {
	case s.SubscriptionID == nil && o.SubscriptionID == nil:
		return true
	case s.SubscriptionID == nil || o.SubscriptionID == nil:
		return false
	default:
		return *s.SubscriptionID == *o.SubscriptionID
	}
}

// withFilter returns a copy carrying the matched topic filter.
func (s *Subscriber) withFilter(filter string) Subscriber {
	cp := *s
	cp.TopicFilter = filter
	return cp
}

// Match is a deduplicated match result: one entry per client, topic filter
// and shared group, with the highest QoS and all subscription identifiers of
// the subscriptions merged into it.
type Match struct {
	ClientID        string
	SharedName      string
	TopicFilter     string
	SubscriptionIDs []uint32
	QoS             byte
	Flags           Flags
}

// IsShared returns true if the match comes from a shared subscription.
func (m Match) IsShared() bool {
	return m.SharedName != ""
}

// ItemFilter decides whether a stored subscription takes part in a result.
type ItemFilter func(sub Subscriber) bool

var (
	// AllSubscriptions accepts every subscription.
	AllSubscriptions ItemFilter = func(Subscriber) bool { return true }

	// IndividualSubscriptions accepts only non-shared subscriptions.
	IndividualSubscriptions ItemFilter = func(sub Subscriber) bool { return !sub.IsShared() }

	// SharedSubscriptions accepts only shared subscriptions.
	SharedSubscriptions ItemFilter = func(sub Subscriber) bool { return sub.IsShared() }
)

func (f ItemFilter) check(sub *Subscriber) bool {
	return f == nil || f(*sub)
}
