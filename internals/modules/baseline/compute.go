package baseline

import (
	"math"
	"sort"
	"time"

	"routepulse/internals/modules/route"

	"github.com/google/uuid"
)

// BucketOfDay truncates a local instant to its 5-minute bucket start.
func BucketOfDay(local time.Time) int {
	tod := route.MinuteOfDay(local)
	return tod - tod%BucketWidth
}

type accumulator struct {
	sum   float64
	sumSq float64
	n     int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.sumSq += v * v
	a.n++
}

func (a *accumulator) mean() float64 {
	return a.sum / float64(a.n)
}

// stddev is the sample standard deviation, defined only for n >= 2.
func (a *accumulator) stddev() *float64 {
	if a.n < 2 {
		return nil
	}
	m := a.mean()
	variance := (a.sumSq - float64(a.n)*m*m) / float64(a.n-1)
	if variance < 0 {
		variance = 0 // float noise on identical samples
	}
	sd := math.Sqrt(variance)
	return &sd
}

// ComputeBaseline buckets a route's samples whose local weekday matches
// and aggregates each bucket. When fewer than minSessions distinct
// sessions contribute, the slot list comes back empty: the route has
// insufficient history and no baseline is claimed.
func ComputeBaseline(routeID uuid.UUID, weekday time.Weekday, loc *time.Location, samples []Sample, minSessions int) Response {
	buckets := make(map[int]*accumulator)
	sessions := make(map[uuid.UUID]struct{})

	for _, s := range samples {
		local := s.PolledAt.In(loc)
		if local.Weekday() != weekday {
			continue
		}
		sessions[s.SessionID] = struct{}{}
		b := BucketOfDay(local)
		acc, ok := buckets[b]
		if !ok {
			acc = &accumulator{}
			buckets[b] = acc
		}
		acc.add(float64(s.DurationSec))
	}

	resp := Response{
		RouteID:      routeID,
		Weekday:      weekdayName(weekday),
		SessionCount: len(sessions),
		Slots:        []Slot{},
	}
	if len(sessions) < minSessions {
		return resp
	}

	for b, acc := range buckets {
		resp.Slots = append(resp.Slots, Slot{
			BucketMinute: b,
			Mean:         acc.mean(),
			StdDev:       acc.stddev(),
			RecordCount:  acc.n,
		})
	}
	sort.Slice(resp.Slots, func(i, j int) bool {
		return resp.Slots[i].BucketMinute < resp.Slots[j].BucketMinute
	})
	return resp
}

// ComputeVolatility applies the same bucketing rule across routes,
// grouped by provider instead of route. Each route's own timezone
// decides the weekday and bucket of its samples.
func ComputeVolatility(weekday time.Weekday, samples []Sample) []VolatilitySlot {
	type key struct {
		provider string
		bucket   int
	}
	buckets := make(map[key]*accumulator)

	for _, s := range samples {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			loc = time.UTC
		}
		local := s.PolledAt.In(loc)
		if local.Weekday() != weekday {
			continue
		}
		k := key{provider: s.Provider, bucket: BucketOfDay(local)}
		acc, ok := buckets[k]
		if !ok {
			acc = &accumulator{}
			buckets[k] = acc
		}
		acc.add(float64(s.DurationSec))
	}

	slots := make([]VolatilitySlot, 0, len(buckets))
	for k, acc := range buckets {
		slots = append(slots, VolatilitySlot{
			Provider:     k.provider,
			BucketMinute: k.bucket,
			Mean:         acc.mean(),
			StdDev:       acc.stddev(),
			RecordCount:  acc.n,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Provider != slots[j].Provider {
			return slots[i].Provider < slots[j].Provider
		}
		return slots[i].BucketMinute < slots[j].BucketMinute
	})
	return slots
}

func weekdayName(wd time.Weekday) string {
	return map[time.Weekday]string{
		time.Monday:    "mon",
		time.Tuesday:   "tue",
		time.Wednesday: "wed",
		time.Thursday:  "thu",
		time.Friday:    "fri",
		time.Saturday:  "sat",
		time.Sunday:    "sun",
	}[wd]
}
