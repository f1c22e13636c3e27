package models

// Stage identifie l'étape courante du pipeline de génération
type Stage string

const (
	StageDownloading  Stage = "downloading"
	StageExtracting   Stage = "extracting"
	StagePartitioning Stage = "partitioning"
	StageSummarizing  Stage = "summarizing"
	StageQuality      Stage = "quality"
	StageOverview     Stage = "overview"
	StageStructure    Stage = "structure"
	StageLessons      Stage = "lessons"
	StageAssessments  Stage = "assessments"
	StageFinalizing   Stage = "finalizing"
	StageSaving       Stage = "saving"
	StageComplete     Stage = "complete"
)

// Progress associe une étape à un libellé lisible
type Progress struct {
	Stage  Stage  `json:"stage"`
	Detail string `json:"detail"`
}

// ProgressEvent est diffusé aux clients qui suivent un job
// @Description Évènement de progression d'un job
type ProgressEvent struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Stage         Stage     `json:"stage,omitempty"`
	Step          string    `json:"step,omitempty"`
	QueuePosition *int      `json:"queue_position,omitempty"`
	Error         string    `json:"error,omitempty"`
	Deleted       bool      `json:"deleted,omitempty"`
} // @name ProgressEvent

// IsFinal indique que plus aucun évènement ne suivra pour ce job
func (e ProgressEvent) IsFinal() bool {
	return e.Deleted || e.Status == StatusReady || e.Status == StatusError
}
