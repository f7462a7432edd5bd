package memory

import "capsule/internal/domain"

// Stored records never share pointees with callers: values are cloned on
// the way in and on the way out.

func dup[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u domain.User) domain.User {
	u.GoogleID = dup(u.GoogleID)
	return u
}

func cloneUnit(u domain.Unit) domain.Unit {
	u.ToRent = dup(u.ToRent)
	u.LastCleanedAt = dup(u.LastCleanedAt)
	u.LastCleanedBy = dup(u.LastCleanedBy)
	u.PurchaseDate = dup(u.PurchaseDate)
	return u
}

func cloneGuest(g domain.Guest) domain.Guest {
	g.CheckoutTime = dup(g.CheckoutTime)
	g.ExpectedCheckoutDate = dup(g.ExpectedCheckoutDate)
	g.SelfCheckinToken = dup(g.SelfCheckinToken)
	return g
}

func cloneProblem(p domain.Problem) domain.Problem {
	p.ResolvedBy = dup(p.ResolvedBy)
	p.ResolvedAt = dup(p.ResolvedAt)
	p.Notes = dup(p.Notes)
	return p
}

func cloneToken(t domain.GuestToken) domain.GuestToken {
	t.UnitNumber = dup(t.UnitNumber)
	t.ExpectedCheckoutDate = dup(t.ExpectedCheckoutDate)
	t.UsedAt = dup(t.UsedAt)
	return t
}

func cloneNotification(n domain.Notification) domain.Notification {
	n.GuestID = dup(n.GuestID)
	n.UnitNumber = dup(n.UnitNumber)
	return n
}

func cloneSubscription(s domain.PushSubscription) domain.PushSubscription {
	s.LastUsedAt = dup(s.LastUsedAt)
	return s
}
