package output

import "ufunda-orchestrator/internal/domain/entity"

type EventSink interface {
	Publish(event entity.Event)
}

type ReportSink interface {
	RecordReport(report entity.Report)
}
