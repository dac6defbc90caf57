package lead

import "log/slog"

type Stage string

const (
	StageConversion Stage = "conversion"
	StageCRM        Stage = "crm"
	StageNotify     Stage = "notify"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult is the outcome of one integration stage.
type StageResult struct {
	Stage  Stage
	Status Status
	Err    error
}

// Report collects the stage results of one submission in execution order.
type Report []StageResult

// Status returns the status recorded for stage, or "" if it never ran.
func (r Report) Status(stage Stage) Status {
	for _, res := range r {
		if res.Stage == stage {
			return res.Status
		}
	}
	return ""
}

// LogValue renders the report as a group of stage=status pairs.
func (r Report) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(r))
	for _, res := range r {
		attrs = append(attrs, slog.String(string(res.Stage), string(res.Status)))
	}
	return slog.GroupValue(attrs...)
}
