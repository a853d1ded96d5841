package fanout

import chat "spachat/internal/pkg/chat/domain"

// Topic names follow the shape clients subscribe to:
//   chat.{staffID}.{customerID}  one open conversation view
//   staff.{staffID}              the staff inbox, across all pairs

func PairTopic(staffID, customerID string) string {
	return "chat." + staffID + "." + customerID
}

func StaffTopic(staffID string) string {
	return "staff." + staffID
}

// TopicsFor maps one persisted message to every topic that must hear about
// it. Adding a destination means extending this list, not adding a second
// publish path.
func TopicsFor(m chat.Message) []string {
	return []string{
		PairTopic(m.StaffID, m.CustomerID),
		StaffTopic(m.StaffID),
	}
}
