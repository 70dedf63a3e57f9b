// Package analytics holds the visitor-tracking helpers shared by the HTTP
// API and the services: session id generation and secondary event sinks.
package analytics

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"sitecms/internal/domain"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns an id of the form session_<unixms>_<9 base36 chars>.
func NewSessionID(now time.Time) string {
	var b strings.Builder
	b.WriteString("session_")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	for i := 0; i < 9; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

// Sink receives a copy of every tracked session and event after the primary
// store accepted it. Sinks are best effort.
type Sink interface {
	RecordSession(ctx context.Context, s domain.VisitorSession) error
	RecordSessionEnd(ctx context.Context, sessionID string, seconds int, endedAt time.Time) error
	RecordEvent(ctx context.Context, e domain.PageEvent) error
	Close(ctx context.Context) error
}
