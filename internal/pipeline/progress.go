package pipeline

import "time"

// ProgressEvent 发送进度事件
type ProgressEvent struct {
	Type      string    `json:"type"` // start/sent/skipped/failed/done
	Supplier  string    `json:"supplier,omitempty"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func reportProgress(progress func(ProgressEvent), evt ProgressEvent) {
	if progress == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	progress(evt)
}
