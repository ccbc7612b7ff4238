package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"barbersched/pkg/actor"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// IdempotencyStore tracks POST outcomes by key.
//
// Begin claims key. It returns the stored response if the key already
// completed, or inFlight=true if another request holds the claim. Finish
// stores the response and ends the claim; a nil response forgets the key so
// the client may retry.
type IdempotencyStore interface {
	Begin(key string) (cached *CachedResponse, inFlight bool)
	Finish(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type idempotencyEntry struct {
	response *CachedResponse // nil while the first request runs
	at       time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	every := min(ttl, 10*time.Minute)
	if every <= 0 {
		every = time.Minute
	}
	go s.sweep(every)
	return s
}

func (s *InMemoryIdempotencyStore) Begin(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !s.expired(e) {
		if e.response == nil {
			return nil, true
		}
		return e.response, false
	}
	s.entries[key] = idempotencyEntry{at: s.now()}
	return nil, false
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response == nil {
		delete(s.entries, key)
		return
	}
	s.entries[key] = idempotencyEntry{response: response, at: s.now()}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *InMemoryIdempotencyStore) expired(e idempotencyEntry) bool {
	return s.now().Sub(e.at) > s.ttl
}

func (s *InMemoryIdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, e := range s.entries {
				if s.expired(e) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// Idempotency replays the first 2xx response for a repeated POST key and
// answers 409 while that first request is still running. Keys are scoped to
// the caller and the path. Failed or panicking requests release the key.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = HeaderIdempotencyKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, inFlight := store.Begin(key)
			switch {
			case inFlight:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":"A request with this idempotency key is still in progress","code":"CONFLICT"}`))
				return
			case cached != nil:
				replay(w, cached)
				return
			}

			rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
			var stored *CachedResponse
			defer func() { store.Finish(key, stored) }()

			next.ServeHTTP(rec, r)
			if rec.status >= 200 && rec.status < 300 {
				stored = &CachedResponse{
					StatusCode: rec.status,
					Header:     w.Header().Clone(),
					Body:       rec.body.Bytes(),
				}
			}
		})
	}
}

func idempotencyKey(r *http.Request, headerName string) string {
	if r.Method != http.MethodPost {
		return ""
	}
	key := r.Header.Get(headerName)
	if key == "" {
		return ""
	}
	caller := "anonymous"
	if a, ok := actor.FromContext(r.Context()); ok {
		caller = a.ID
	}
	return caller + "|" + r.URL.Path + "|" + key
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for k, values := range cached.Header {
		w.Header()[k] = append([]string(nil), values...)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bodyRecorder) WriteHeader(status int) {
	b.status = status
	b.ResponseWriter.WriteHeader(status)
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}
