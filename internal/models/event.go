package models

import "fmt"

type ProgressStatus string

const (
	StatusChecked   ProgressStatus = "checked"
	StatusProgress  ProgressStatus = "progress"
	StatusProcessed ProgressStatus = "processed"
	StatusDone      ProgressStatus = "done"
	StatusError     ProgressStatus = "error"
)

// ProgressEvent is one message on the uploader's progress stream. Msg is a
// string for checked/processed/done/error and a {height: percent} object for
// progress, matching the wire contract of the browser client.
type ProgressEvent struct {
	Status ProgressStatus `json:"status"`
	Msg    interface{}    `json:"msg"`
}

// Terminal reports whether delivery of this event ends the subscription.
func (e ProgressEvent) Terminal() bool {
	return e.Status == StatusDone || e.Status == StatusError
}

func CheckedEvent(msg string) ProgressEvent {
	return ProgressEvent{Status: StatusChecked, Msg: msg}
}

func RenditionProgressEvent(height int, percent float64) ProgressEvent {
	return ProgressEvent{
		Status: StatusProgress,
		Msg:    map[string]float64{fmt.Sprintf("%d", height): percent},
	}
}

func ProcessedEvent(label string) ProgressEvent {
	return ProgressEvent{Status: StatusProcessed, Msg: label}
}

func DoneEvent(msg string) ProgressEvent {
	return ProgressEvent{Status: StatusDone, Msg: msg}
}

func ErrorEvent(msg string) ProgressEvent {
	return ProgressEvent{Status: StatusError, Msg: msg}
}
