package worker

import (
	"fmt"
	"sync"
	"time"
)

// jobLog accumule les étapes d'un job, horodatées, pour la sauvegarde en fin de traitement
type jobLog struct {
	mu      sync.Mutex
	entries []string
	now     func() time.Time
}

func newJobLog() *jobLog {
	return &jobLog{now: time.Now}
}

func (l *jobLog) add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("[%s] %s", l.now().Format("2006-01-02 15:04:05"), line))
}

func (l *jobLog) lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
