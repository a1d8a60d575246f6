package services

import (
	"sync"
	"time"

	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/render"
)

// StateKind は画面状態の種類です。
type StateKind string

const (
	StateIdle    StateKind = "idle"
	StateLoading StateKind = "loading"
	StateResults StateKind = "results"
	StateError   StateKind = "error"
)

// UIState は画面に表示する唯一の状態です。
// 状態は丸ごと置き換えられ、その場で変更されることはありません。
type UIState struct {
	Kind      StateKind                `json:"kind"`
	Seq       uint64                   `json:"seq"`
	Request   *models.AnalysisRequest  `json:"request,omitempty"`
	Response  *models.AnalysisResponse `json:"response,omitempty"`
	Header    *render.ResultsHeader    `json:"header,omitempty"`
	Products  []render.ProductView     `json:"products,omitempty"`
	ErrorKind ErrorKind                `json:"error_kind,omitempty"`
	Message   string                   `json:"message,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// IsLoading は分析中かどうかを返します。
func (s UIState) IsLoading() bool {
	return s.Kind == StateLoading
}

// StateListener は状態遷移のたびに呼ばれます。
type StateListener func(UIState)

// StateHolder はUIStateを保持します。書き込みはOrchestratorのみが行います。
type StateHolder struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	state     UIState
	seq       uint64
	listeners map[int]StateListener
	nextID    int
	now       func() time.Time
}

// NewStateHolder はIdle状態のStateHolderを作成します。
func NewStateHolder() *StateHolder {
	h := &StateHolder{
		listeners: make(map[int]StateListener),
		now:       time.Now,
	}
	h.state = UIState{Kind: StateIdle, UpdatedAt: h.now()}
	return h
}

// Snapshot は現在の状態を返します。返された値は読み取り専用です。
func (h *StateHolder) Snapshot() UIState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Subscribe はリスナーを登録し、解除用の関数を返します。
// リスナーはロックの外で、遷移の順番どおりに呼ばれます。
// リスナーの中から状態遷移を起こしてはいけません。
func (h *StateHolder) Subscribe(fn StateListener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// transition は現在の状態から次の状態を計算して置き換えます。
// fn が false を返した場合は何も変更しません。
func (h *StateHolder) transition(fn func(cur UIState) (UIState, bool)) (UIState, bool) {
	h.mu.Lock()
	next, ok := fn(h.state)
	if !ok {
		cur := h.state
		h.mu.Unlock()
		return cur, false
	}
	next.UpdatedAt = h.now()
	h.state = next

	listeners := make([]StateListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}

	// 状態ロックを離す前に通知ロックを取り、通知順を遷移順に揃える
	h.notifyMu.Lock()
	h.mu.Unlock()
	defer h.notifyMu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next, true
}

// nextSeq は新しいシーケンス番号を発行します。mu を保持した状態で呼びます。
func (h *StateHolder) nextSeq() uint64 {
	h.seq++
	return h.seq
}
