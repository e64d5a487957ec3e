package realtime

// Topic names a server-pushed invalidation signal. The payload is ignored.
type Topic string

const (
	TopicEvents       Topic = "update-events"
	TopicChores       Topic = "update-chores"
	TopicBills        Topic = "update-bills"
	TopicShoppingList Topic = "update-shopping-list"

	// TopicConnected fires after the namespace connect is acknowledged and
	// the join announcement has been sent.
	TopicConnected Topic = "connect"
)

// Topics are the server events the channel dispatches.
var Topics = []Topic{TopicEvents, TopicChores, TopicBills, TopicShoppingList}

const (
	eventJoinHousehold  = "join-household"
	eventLeaveHousehold = "leave-household"
)

func isDispatchable(t Topic) bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// State is the lifecycle of the current connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
