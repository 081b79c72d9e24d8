package obs

import (
	"context"
	"log"
	"strconv"
	"sync/atomic"
	"time"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	TrialKey     ctxKey = "trial"
)

var requestSeq atomic.Uint64

// WithRequestID tags ctx with a process-unique request id.
func WithRequestID(ctx context.Context) context.Context {
	id := strconv.FormatUint(requestSeq.Add(1), 10)
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithTrial tags ctx with a plan-search candidate index.
func WithTrial(ctx context.Context, trial int) context.Context {
	return context.WithValue(ctx, TrialKey, trial)
}

// Time logs the duration of op when the returned func is deferred with the
// caller's named error.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	trial, hasTrial := ctx.Value(TrialKey).(int)

	return func(errp *error) {
		dur := time.Since(start)

		prefix := "req_id=" + reqID
		if hasTrial {
			prefix += " trial=" + strconv.Itoa(trial)
		}

		if errp != nil && *errp != nil {
			log.Printf("%s op=%s dur=%dms err=%v", prefix, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("%s op=%s dur=%dms", prefix, name, dur.Milliseconds())
	}
}
