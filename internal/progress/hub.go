// Package progress diffuse l'avancement des jobs aux clients abonnés
package progress

import (
	"sync"

	"github.com/Open-Course-Factory/ocf-coursegen/pkg/models"
)

// subscriberBuffer est la capacité du canal de chaque abonné
const subscriberBuffer = 16

// Publisher reçoit les évènements de progression émis par le scheduler
type Publisher interface {
	Publish(event models.ProgressEvent)
}

// Hub distribue les évènements aux abonnés d'un job. Un abonné trop lent perd
// les évènements intermédiaires plutôt que de bloquer le scheduler; l'évènement
// final lui parvient toujours.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan models.ProgressEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan models.ProgressEvent]struct{})}
}

// Subscribe retourne le flux des évènements d'un job et la fonction de désabonnement
func (h *Hub) Subscribe(jobID string) (<-chan models.ProgressEvent, func()) {
	ch := make(chan models.ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subscribers[jobID] == nil {
		h.subscribers[jobID] = make(map[chan models.ProgressEvent]struct{})
	}
	h.subscribers[jobID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[jobID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, jobID)
				}
			}
			close(ch)
		})
	}
}

// Publish envoie l'évènement à chaque abonné du job sans bloquer. Si le canal
// d'un abonné est plein, un évènement final remplace le plus ancien en attente.
func (h *Hub) Publish(event models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[event.JobID] {
		select {
		case ch <- event:
			continue
		default:
		}
		if !event.IsFinal() {
			continue
		}
		// les envois se font sous le verrou: après un retrait, la place est libre
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers retourne le nombre d'abonnés d'un job
func (h *Hub) Subscribers(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[jobID])
}
