package currency

import (
	"fmt"
	"time"
)

const keyTimeLayout = "20060102_150405"

// KeyGenerator issues storage keys of the form
// <prefix><YYYYMMDD>_<HHMMSS>_<microseconds>.json.
//
// Keys issued by one generator are strictly increasing: when the clock has not
// moved past the last issued key, the new key is pushed one microsecond ahead.
// Nothing coordinates two generators, so two processes writing at the same
// microsecond can still collide. KeyGenerator is not safe for concurrent use.
type KeyGenerator struct {
	now  func() time.Time
	last time.Time
}

func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}

	return &KeyGenerator{now: now}
}

func (g *KeyGenerator) Next(prefix string) string {
	t := g.now().Truncate(time.Microsecond)

	if !t.After(g.last) {
		t = g.last.Add(time.Microsecond)
	}

	g.last = t

	return FormatKey(prefix, t)
}

func FormatKey(prefix string, t time.Time) string {
	return fmt.Sprintf("%s%s_%06d.json", prefix, t.Format(keyTimeLayout), t.Nanosecond()/int(time.Microsecond))
}
