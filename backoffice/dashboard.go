package backoffice

import (
	"sort"
	"time"

	"github.com/cardops/backoffice/internal/mask"
	"github.com/cardops/backoffice/models"
)

// Stats is the dashboard counter block. Amount totals cover APPROVED
// transactions only; the mean of an empty approved set is defined as 0.
type Stats struct {
	TotalCards            int     `json:"totalCards"`
	CreatedCards          int     `json:"createdCards"`
	EnrolledCards         int     `json:"enrolledCards"`
	InactiveCards         int     `json:"inactiveCards"`
	TotalTransactions     int     `json:"totalTransactions"`
	ApprovedTransactions  int     `json:"approvedTransactions"`
	CancelledTransactions int     `json:"cancelledTransactions"`
	RejectedTransactions  int     `json:"rejectedTransactions"`
	TotalAmount           float64 `json:"totalAmount"`
	AvgTransactionAmount  float64 `json:"avgTransactionAmount"`
}

type ActivityKind string

const (
	ActivityCard        ActivityKind = "card"
	ActivityTransaction ActivityKind = "transaction"
)

// Activity is one entry of the recent-activity feed. Description carries
// only masked identifiers.
type Activity struct {
	Type        ActivityKind `json:"type"`
	Action      string       `json:"action"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      string       `json:"status"`
}

const (
	recentPerCollection = 3
	recentFeedLimit     = 6
)

// CalculateStats reduces a snapshot pair into the dashboard counters. It is
// stateless: identical inputs always yield identical output.
func CalculateStats(cards []models.CardDetails, txns []models.Transaction) Stats {
	s := Stats{TotalCards: len(cards), TotalTransactions: len(txns)}

	for _, c := range cards {
		switch c.Status {
		case models.CardStatusCreated:
			s.CreatedCards++
		case models.CardStatusEnrolled:
			s.EnrolledCards++
		case models.CardStatusInactive:
			s.InactiveCards++
		}
	}

	for _, t := range txns {
		switch t.Status {
		case models.TransactionStatusApproved:
			s.ApprovedTransactions++
			s.TotalAmount += t.TotalAmount
		case models.TransactionStatusCancelled:
			s.CancelledTransactions++
		case models.TransactionStatusRejected:
			s.RejectedTransactions++
		}
	}

	if s.ApprovedTransactions > 0 {
		s.AvgTransactionAmount = s.TotalAmount / float64(s.ApprovedTransactions)
	}
	return s
}

// RecentActivity merges the three newest cards and three newest transactions
// into one recency-ranked feed of at most six entries. Ties keep the
// original collection order.
func RecentActivity(cards []models.CardDetails, txns []models.Transaction, format *mask.Formatter) []Activity {
	activities := make([]Activity, 0, 2*recentPerCollection)

	for _, c := range newestCards(cards) {
		activities = append(activities, Activity{
			Type:        ActivityCard,
			Action:      cardAction(c.Status),
			Description: mask.Identifier(c.Identifier) + " - " + c.HolderName,
			Timestamp:   c.CreatedAt,
			Status:      string(c.Status),
		})
	}
	for _, t := range newestTransactions(txns) {
		activities = append(activities, Activity{
			Type:        ActivityTransaction,
			Action:      transactionAction(t.Status),
			Description: format.Amount(t.TotalAmount) + " - " + t.ReferenceNumber,
			Timestamp:   t.CreatedAt,
			Status:      string(t.Status),
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > recentFeedLimit {
		activities = activities[:recentFeedLimit]
	}
	return activities
}

func newestCards(cards []models.CardDetails) []models.CardDetails {
	sorted := make([]models.CardDetails, len(cards))
	copy(sorted, cards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentPerCollection {
		sorted = sorted[:recentPerCollection]
	}
	return sorted
}

func newestTransactions(txns []models.Transaction) []models.Transaction {
	sorted := make([]models.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentPerCollection {
		sorted = sorted[:recentPerCollection]
	}
	return sorted
}

func cardAction(s models.CardStatus) string {
	switch s {
	case models.CardStatusCreated:
		return "card created"
	case models.CardStatusEnrolled:
		return "card enrolled"
	case models.CardStatusInactive:
		return "card deactivated"
	default:
		return "card updated"
	}
}

func transactionAction(s models.TransactionStatus) string {
	switch s {
	case models.TransactionStatusApproved:
		return "transaction approved"
	case models.TransactionStatusCancelled:
		return "transaction cancelled"
	case models.TransactionStatusRejected:
		return "transaction rejected"
	default:
		return "transaction processed"
	}
}
