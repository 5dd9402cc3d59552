package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikesTotal counts like ledger mutations by policy and direction.
	LikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsablog_likes_total",
		Help: "Total like ledger mutations by policy (anonymous, member) and direction (up, down)",
	}, []string{"policy", "direction"})

	// CommentsTotal counts stored comments.
	CommentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsablog_comments_total",
		Help: "Total comments stored, split by anonymity",
	}, []string{"anonymous"})

	// PostTransitions counts post lifecycle transitions.
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsablog_post_transitions_total",
		Help: "Total post lifecycle transitions (create, update, delete, publish, unpublish)",
	}, []string{"transition"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsablog_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// ObserveComment records a stored comment.
func ObserveComment(anonymous bool) {
	CommentsTotal.WithLabelValues(strconv.FormatBool(anonymous)).Inc()
}
