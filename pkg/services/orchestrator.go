package services

import (
	"context"
	"strings"
	"time"

	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/render"

	"github.com/sirupsen/logrus"
)

// Analyzer は分析サービスへの呼び出しを抽象化します。
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*AnalysisResult, error)
}

// Orchestrator は1セッション分の分析リクエストのライフサイクルを管理します。
// 分析中は新しいトリガーをすべて拒否し、さらに各リクエストにシーケンス番号を付けて
// 最新でない完了結果は破棄します。
type Orchestrator struct {
	analyzer  Analyzer
	state     *StateHolder
	sessionID string
}

// NewOrchestrator は新しいOrchestratorを作成します。
func NewOrchestrator(analyzer Analyzer, state *StateHolder, sessionID string) *Orchestrator {
	if state == nil {
		state = NewStateHolder()
	}
	return &Orchestrator{
		analyzer:  analyzer,
		state:     state,
		sessionID: sessionID,
	}
}

// State は状態ホルダーを返します。
func (o *Orchestrator) State() *StateHolder {
	return o.state
}

// Submit は入力検証、Loadingへの遷移、1回の分析呼び出し、結果の分類を順に行い、
// 呼び出しが完了してから戻ります。分析結果は状態として通知され、戻り値にはなりません。
// 分析中でトリガーが拒否された場合のみ ErrAnalysisInProgress を返します。
func (o *Orchestrator) Submit(ctx context.Context, req models.AnalysisRequest) error {
	seq, accepted, err := o.begin(req)
	if err != nil || !accepted {
		return err
	}
	o.run(ctx, seq, normalizeRequest(req))
	return nil
}

// SubmitAsync は Submit と同じ検証と遷移を同期的に行い、
// 分析呼び出しと分類はゴルーチンで実行します。
func (o *Orchestrator) SubmitAsync(ctx context.Context, req models.AnalysisRequest) error {
	seq, accepted, err := o.begin(req)
	if err != nil || !accepted {
		return err
	}
	go o.run(ctx, seq, normalizeRequest(req))
	return nil
}

// Reset は状態をIdleに戻します。実行中の呼び出しの結果は破棄されます。
func (o *Orchestrator) Reset() UIState {
	next, _ := o.state.transition(func(cur UIState) (UIState, bool) {
		return UIState{Kind: StateIdle, Seq: o.state.nextSeq()}, true
	})
	o.log().WithField("seq", next.Seq).Info("state reset")
	return next
}

// begin はトリガーを受け付けるかどうかを決め、状態を遷移させます。
// accepted が true の場合のみ呼び出し側は run を実行します。
func (o *Orchestrator) begin(req models.AnalysisRequest) (seq uint64, accepted bool, err error) {
	req = normalizeRequest(req)

	next, ok := o.state.transition(func(cur UIState) (UIState, bool) {
		if cur.IsLoading() {
			return cur, false
		}
		if req.Query == "" {
			return UIState{
				Kind:      StateError,
				Seq:       o.state.nextSeq(),
				Request:   &req,
				ErrorKind: ErrorKindValidation,
				Message:   MsgQueryRequired,
			}, true
		}
		return UIState{
			Kind:    StateLoading,
			Seq:     o.state.nextSeq(),
			Request: &req,
		}, true
	})

	if !ok {
		o.log().WithField("query", req.Query).Warn("trigger rejected: analysis in progress")
		return 0, false, ErrAnalysisInProgress
	}
	if next.Kind == StateError {
		o.log().WithField("outcome", ErrorKindValidation).Info("empty query rejected")
		return next.Seq, false, nil
	}
	return next.Seq, true, nil
}

// run は分析呼び出しを1回だけ行い、結果を分類して状態に反映します。
func (o *Orchestrator) run(ctx context.Context, seq uint64, req models.AnalysisRequest) {
	start := time.Now()
	result, err := o.analyzer.Analyze(ctx, req)
	outcome := classify(result, err)
	outcome.Seq = seq
	outcome.Request = &req

	_, applied := o.state.transition(func(cur UIState) (UIState, bool) {
		if cur.Seq != seq {
			return cur, false
		}
		return outcome, true
	})

	entry := o.log().WithFields(logrus.Fields{
		"seq":     seq,
		"query":   req.Query,
		"outcome": outcome.Kind,
		"elapsed": time.Since(start).String(),
	})
	switch {
	case !applied:
		entry.Warn("stale analysis completion discarded")
	case outcome.Kind == StateError:
		entry.WithField("error_kind", outcome.ErrorKind).Warnf("analysis failed: %s", outcome.Message)
	default:
		entry.WithField("products", len(outcome.Products)).Info("analysis completed")
	}
}

// classify は分析呼び出しの結果を終端状態に分類します。
// 判定順: 通信失敗 → HTTPステータス → success フラグ。
func classify(result *AnalysisResult, err error) UIState {
	if err != nil {
		return errorState(ErrorKindTransport, err.Error(), MsgServiceUnreachable)
	}
	if result == nil {
		return errorState(ErrorKindTransport, "", MsgServiceUnreachable)
	}
	if !result.OK() {
		return errorState(ErrorKindServer, result.Body.Error, MsgServerError)
	}
	if !result.Body.Success {
		return errorState(ErrorKindServer, result.Body.Error, MsgAnalysisFailed)
	}

	body := result.Body
	header := render.Header(&body)
	return UIState{
		Kind:     StateResults,
		Response: &body,
		Header:   &header,
		Products: render.Render(&body),
	}
}

func errorState(kind ErrorKind, message, fallback string) UIState {
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return UIState{Kind: StateError, ErrorKind: kind, Message: message}
}

func normalizeRequest(req models.AnalysisRequest) models.AnalysisRequest {
	req.Query = strings.TrimSpace(req.Query)
	return req
}

func (o *Orchestrator) log() *logrus.Entry {
	return logger.Log.WithField("session", o.sessionID)
}
