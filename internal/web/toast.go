package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Toast struct {
	ID              string
	Message         string
	Kind            string
	DurationSeconds int
	CreatedAt       time.Time
}

const (
	toastSuccess = "success"
	toastError   = "error"
)

type toastStore struct {
	mu        sync.Mutex
	bySession map[string][]Toast
}

func newToastStore() *toastStore {
	return &toastStore{bySession: make(map[string][]Toast)}
}

func (s *toastStore) Add(key string, toast Toast) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySession[key] = append(s.bySession[key], toast)
}

// Take returns the toasts still alive for key and clears the queue.
func (s *toastStore) Take(key string, now time.Time) []Toast {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.bySession[key]
	delete(s.bySession, key)
	var active []Toast
	for _, toast := range toasts {
		if toast.DurationSeconds > 0 {
			exp := toast.CreatedAt.Add(time.Duration(toast.DurationSeconds) * time.Second)
			if now.After(exp) {
				continue
			}
		}
		active = append(active, toast)
	}
	return active
}

func (s *Server) addToast(r *http.Request, kind, message string) {
	s.toasts.Add(sessionID(r.Context()), Toast{
		ID:              uuid.NewString(),
		Message:         message,
		Kind:            kind,
		DurationSeconds: 30,
		CreatedAt:       s.now(),
	})
}
