package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"smart-product-analyzer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxLogEntries は保持するリクエストログの上限です。
const maxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
	ClientIP     string        `json:"client_ip"`
}

// MonitoringService はリクエストと分析結果のモニタリング機能を提供します。
type MonitoringService struct {
	mu       sync.RWMutex
	logs     []LogEntry
	outcomes map[string]int
	location *time.Location
	now      func() time.Time
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	// 集計の時間帯はリヤド時間。取得できない場合はUTC
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		loc = time.UTC
	}
	return &MonitoringService{
		logs:     make([]LogEntry, 0),
		outcomes: make(map[string]int),
		location: loc,
		now:      time.Now,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[len(s.logs)-maxLogEntries:]
	}
}

// RecordOutcome は分析の終端状態を記録します。
func (s *MonitoringService) RecordOutcome(state UIState) {
	var key string
	switch state.Kind {
	case StateResults:
		key = string(StateResults)
	case StateError:
		key = string(StateError) + ":" + string(state.ErrorKind)
	default:
		return
	}

	s.mu.Lock()
	s.outcomes[key]++
	s.mu.Unlock()
}

// TrackSession はセッションの状態遷移を購読して分析結果を記録します。
func (s *MonitoringService) TrackSession(session *Session) {
	session.State().Subscribe(s.RecordOutcome)
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()

		// 次のミドルウェア/ハンドラを実行
		c.Next()

		path := c.Request.URL.Path
		entry := LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
			ClientIP:     c.ClientIP(),
		}

		logger.Log.WithFields(logrus.Fields{
			"method":  entry.Method,
			"path":    path,
			"status":  entry.StatusCode,
			"latency": entry.ResponseTime.String(),
			"ip":      entry.ClientIP,
		}).Debug("request")

		// モニタリング自身と静的な確認系のパスは除外
		if strings.HasPrefix(path, "/api/monitoring") || path == "/health" || path == "/ws" {
			return
		}
		s.LogRequest(entry)
	}
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	Outcomes         map[string]int           `json:"outcomes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().In(s.location)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filteredLogs := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filteredLogs = append(filteredLogs, entry)
		}
	}

	// 時間ごとのリクエスト数（過去から現在の順）
	requestsOverTime := make([]map[string]interface{}, periodHours)
	bucketIndex := make(map[string]int, periodHours)
	for i := 0; i < periodHours; i++ {
		targetTime := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		bucketIndex[targetTime.Format(time.RFC3339)] = i
		requestsOverTime[i] = map[string]interface{}{"time": targetTime.Format("15:00"), "requests": 0}
	}

	endpoints := make(map[string]int)
	statusCodes := map[string]int{
		"2xx Success":      0,
		"4xx Client Error": 0,
		"5xx Server Error": 0,
	}
	responseTimeSum := make(map[string]time.Duration)
	recentErrors := make([]LogEntry, 0)

	for _, entry := range filteredLogs {
		key := entry.Timestamp.In(s.location).Truncate(time.Hour).Format(time.RFC3339)
		if i, ok := bucketIndex[key]; ok {
			requestsOverTime[i]["requests"] = requestsOverTime[i]["requests"].(int) + 1
		}

		endpoints[entry.Path]++
		responseTimeSum[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 500:
			statusCodes["5xx Server Error"]++
		case entry.StatusCode >= 400:
			statusCodes["4xx Client Error"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusCodes["2xx Success"]++
		}
	}

	statusNames := make([]string, 0, len(statusCodes))
	for name := range statusCodes {
		statusNames = append(statusNames, name)
	}
	sort.Strings(statusNames)
	statusCodesSlice := make([]map[string]interface{}, 0, len(statusNames))
	for _, name := range statusNames {
		statusCodesSlice = append(statusCodesSlice, map[string]interface{}{"name": name, "value": statusCodes[name]})
	}

	paths := make([]string, 0, len(responseTimeSum))
	for path := range responseTimeSum {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, path := range paths {
		avg := responseTimeSum[path].Milliseconds() / int64(endpoints[path])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": path, "responseTime": avg})
	}

	// 直近の5xxエラー（新しい順に最大10件）
	for i := len(filteredLogs) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filteredLogs[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filteredLogs[i])
		}
	}

	outcomes := make(map[string]int, len(s.outcomes))
	for k, v := range s.outcomes {
		outcomes[k] = v
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodesSlice,
		AvgResponseTimes: avgResponseTimes,
		Outcomes:         outcomes,
		RecentErrors:     recentErrors,
	}
}

// ParsePeriod は period クエリ（1h, 24h, 7d）を時間数に変換します。不明な値は24時間です。
func ParsePeriod(period string) int {
	switch period {
	case "1h":
		return 1
	case "7d":
		return 24 * 7
	default:
		return 24
	}
}
