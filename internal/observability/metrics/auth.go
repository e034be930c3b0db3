// Package metrics emits the forum's standard StatsD metrics.
package metrics

import (
	"time"

	obserrors "github.com/target/forum-api/internal/observability/errors"
	"github.com/target/forum-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Auth operations.
const (
	OpLogin         = "login"
	OpLogout        = "logout"
	OpSessionLookup = "session_lookup"
	OpRegister      = "register"
)

// AuthMetric captures one authentication step for metric emission.
type AuthMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitAuth emits auth.<operation> with a result tag, plus a timing when Duration is set.
func EmitAuth(sink statsd.Sink, in AuthMetric) {
	if sink == nil || in.Operation == "" {
		return
	}

	tags := map[string]string{"result": in.Result}
	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth."+in.Operation, 1, tags)

	if in.Duration > 0 {
		sink.Timing("auth."+in.Operation+".duration", in.Duration, CloneTags(tags))
	}
}

// SweepMetric describes one pass of the session janitor.
type SweepMetric struct {
	Removed  int
	Active   int
	Duration time.Duration
}

// EmitSessionSweep emits the janitor's counters and the live session gauge.
func EmitSessionSweep(sink statsd.Sink, in SweepMetric) {
	if sink == nil {
		return
	}
	sink.Count("session.swept", int64(in.Removed), nil)
	sink.Gauge("session.active", float64(in.Active), nil)
	if in.Duration > 0 {
		sink.Timing("session.sweep.duration", in.Duration, nil)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
