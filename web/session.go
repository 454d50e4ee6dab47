package web

import (
	"strings"
	"sync"

	"github.com/mogaika/retro_model_browser/render"
	"github.com/mogaika/retro_model_browser/scene"
)

const DEFAULT_SESSION_LIMIT = 16

// Session is viewer replayed by one browser client.
// Recorder sends resource data once, following frames refer to it by id.
type Session struct {
	Key  string
	Path string

	lock     sync.Mutex
	Recorder *render.Recorder
	Viewer   *scene.Viewer
	// access counter value of last use
	used uint64
}

func (s *Session) Destroy() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Viewer.Destroy()
}

// Frame renders input and returns commands recorded since previous frame
func (s *Session) Frame(build func(v *scene.Viewer) *scene.ViewerRenderInput) *render.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Viewer.RenderFrame(build(s.Viewer))
	return s.Recorder.TakeFrame()
}

func SessionKey(p, id string) string {
	return p + "#" + id
}

// pendingSession is viewer being built, concurrent requests of same key wait on done
type pendingSession struct {
	path string
	done chan struct{}
	err  error
	// path was invalidated while building
	stale bool
}

type Sessions struct {
	lock    sync.Mutex
	list    map[string]*Session
	pending map[string]*pendingSession
	limit   int
	tick    uint64
}

func NewSessions(limit int) *Sessions {
	if limit <= 0 {
		limit = DEFAULT_SESSION_LIMIT
	}
	return &Sessions{
		list:    make(map[string]*Session),
		pending: make(map[string]*pendingSession),
		limit:   limit,
	}
}

func newSession(key, p string, create func(device render.Device) (scene.Renderable, error)) (*Session, error) {
	rec := render.NewRecorder()
	r, err := create(rec)
	if err != nil {
		return nil, err
	}
	v := scene.NewViewer(rec)
	v.Add(r)
	return &Session{Key: key, Path: p, Recorder: rec, Viewer: v}, nil
}

// Get returns existing session or creates one filling viewer with create.
// Viewer is built without holding registry lock, requests of same key share it.
// Least recently used session is destroyed over limit.
func (ss *Sessions) Get(p, id string, create func(device render.Device) (scene.Renderable, error)) (*Session, bool, error) {
	key := SessionKey(p, id)

	ss.lock.Lock()
	for {
		if s, ok := ss.list[key]; ok {
			ss.tick++
			s.used = ss.tick
			ss.lock.Unlock()
			return s, false, nil
		}
		pending, ok := ss.pending[key]
		if !ok {
			break
		}
		ss.lock.Unlock()
		<-pending.done
		if pending.err != nil {
			return nil, false, pending.err
		}
		ss.lock.Lock()
	}
	pending := &pendingSession{path: p, done: make(chan struct{})}
	ss.pending[key] = pending
	ss.lock.Unlock()

	for {
		s, err := newSession(key, p, create)

		ss.lock.Lock()
		if err == nil && pending.stale {
			pending.stale = false
			ss.lock.Unlock()
			s.Destroy()
			continue
		}
		delete(ss.pending, key)
		pending.err = err
		close(pending.done)
		if err != nil {
			ss.lock.Unlock()
			return nil, false, err
		}

		ss.tick++
		s.used = ss.tick
		ss.list[key] = s
		var evicted []*Session
		for len(ss.list) > ss.limit {
			var oldest *Session
			for _, o := range ss.list {
				if oldest == nil || o.used < oldest.used {
					oldest = o
				}
			}
			delete(ss.list, oldest.Key)
			evicted = append(evicted, oldest)
		}
		ss.lock.Unlock()

		for _, o := range evicted {
			o.Destroy()
		}
		return s, true, nil
	}
}

func (ss *Sessions) Close(p, id string) bool {
	ss.lock.Lock()
	s, ok := ss.list[SessionKey(p, id)]
	delete(ss.list, SessionKey(p, id))
	ss.lock.Unlock()
	if ok {
		s.Destroy()
	}
	return ok
}

// Invalidate destroys sessions of path and paths nested inside it
func (ss *Sessions) Invalidate(p string) int {
	ss.lock.Lock()
	var removed []*Session
	for key, s := range ss.list {
		if matchesPath(s.Path, p) {
			delete(ss.list, key)
			removed = append(removed, s)
		}
	}
	for _, pending := range ss.pending {
		if matchesPath(pending.path, p) {
			pending.stale = true
		}
	}
	ss.lock.Unlock()
	for _, s := range removed {
		s.Destroy()
	}
	return len(removed)
}

func matchesPath(path, p string) bool {
	return p == "" || path == p || strings.HasPrefix(path, p+"/")
}

func (ss *Sessions) Len() int {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	return len(ss.list)
}
