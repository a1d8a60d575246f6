package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAnalysisInProgress は分析中に新しい分析要求が来た場合のエラーです。
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrSessionNotFound はセッションが存在しない場合のエラーです。
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoResults はエクスポート対象の結果がない場合のエラーです。
	ErrNoResults = errors.New("no results to export")
)

// ErrorKind はエラー状態の分類です。
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindServer     ErrorKind = "server"
	ErrorKindTransport  ErrorKind = "transport"
)

// ユーザーに表示するメッセージ
const (
	MsgQueryRequired      = "يرجى إدخال نوع المنتج الذي تريد البحث عنه"
	MsgServerError        = "حدث خطأ في الخادم"
	MsgAnalysisFailed     = "فشل في التحليل"
	MsgServiceUnreachable = "تعذر الاتصال بخدمة التحليل"
)

// TransportError は分析サービスとの通信失敗を表します。
// 接続エラー、レスポンスの読み取り失敗、JSONでないボディが含まれます。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
