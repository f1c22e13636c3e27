package models

// ExtractionMethod indique comment le plan du document a été obtenu
type ExtractionMethod string

const (
	MethodMetadata  ExtractionMethod = "metadata"
	MethodHeuristic ExtractionMethod = "heuristic"
	MethodNone      ExtractionMethod = "none"
)

// StructureEntry est une entrée du plan (chapitre) avec sa plage de pages
type StructureEntry struct {
	Level     int    `json:"level" example:"1"`
	Title     string `json:"title" example:"Chapter 1: Getting Started"`
	StartPage int    `json:"start_page" example:"12"`
	EndPage   int    `json:"end_page" example:"31"`
	PageCount int    `json:"page_count" example:"20"`
}

// OutlineResponse représente le plan extrait d'un document
// @Description Table des matières d'un document
type OutlineResponse struct {
	JobID      string           `json:"book_id"`
	Title      string           `json:"title"`
	TotalPages int              `json:"total_pages" example:"240"`
	Chapters   []StructureEntry `json:"chapters"`
	Method     ExtractionMethod `json:"extraction_method" example:"metadata" enums:"metadata,heuristic,none"`
} // @name OutlineResponse
