package services

import (
	"context"
	"sync"
	"time"

	"smart-product-analyzer/pkg/logger"

	"github.com/google/uuid"
)

// Session はブラウザセッション1つ分のコントローラです。
type Session struct {
	ID           string
	Orchestrator *Orchestrator

	mu       sync.Mutex
	lastSeen time.Time
}

// State はセッションの状態ホルダーを返します。
func (s *Session) State() *StateHolder {
	return s.Orchestrator.State()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionService はメモリ上のセッションを管理します。永続化は行いません。
type SessionService struct {
	analyzer Analyzer
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	onCreate []func(*Session)
	now      func() time.Time
}

// NewSessionService は新しいSessionServiceを生成します。
func NewSessionService(analyzer Analyzer, ttl time.Duration) *SessionService {
	return &SessionService{
		analyzer: analyzer,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// OnCreate はセッション作成時に呼ばれるフックを登録します。
func (s *SessionService) OnCreate(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCreate = append(s.onCreate, fn)
}

// GetOrCreate はIDに対応するセッションを返します。
// IDが空またはUUIDでない場合は新しいIDで作成します。created は新規作成かどうかです。
func (s *SessionService) GetOrCreate(id string) (*Session, bool) {
	if session, err := s.Get(id); err == nil {
		return session, false
	}

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}

	s.mu.Lock()
	if session, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		session.touch(s.now())
		return session, false
	}
	session := &Session{
		ID:           id,
		Orchestrator: NewOrchestrator(s.analyzer, NewStateHolder(), id),
		lastSeen:     s.now(),
	}
	s.sessions[id] = session
	hooks := append([]func(*Session){}, s.onCreate...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(session)
	}
	logger.Log.WithField("session", id).Debug("session created")
	return session, true
}

// Get は既存のセッションを返し、最終アクセス時刻を更新します。
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.touch(s.now())
	return session, nil
}

// Count は保持しているセッション数を返します。
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup はTTLを超えて使われていないセッションを削除します。分析中のセッションは残します。
func (s *SessionService) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.idleSince(now) < s.ttl {
			continue
		}
		if session.State().Snapshot().IsLoading() {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("expired sessions cleaned up")
	}
	return removed
}

// StartCleanup は定期的に Cleanup を実行します。ctx が終了すると停止します。
func (s *SessionService) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
