package session

// RemainingKey identifies the question bank a remaining-count snapshot belongs to.
// Keys are compared by value, so parameters never collide through concatenation.
type RemainingKey struct {
	UserID   string `json:"user_id"`
	Country  string `json:"country"`
	Language string `json:"language"`
}

// TopicsKey identifies the question bank a topic list belongs to.
type TopicsKey struct {
	Country  string `json:"country"`
	Language string `json:"language"`
}

type cachedRemaining struct {
	count int
	key   RemainingKey
}

type cachedTopics struct {
	topics []string
	key    TopicsKey
}
