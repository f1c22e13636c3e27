package jobs

import "errors"

var (
	// ErrJobNotFound est renvoyé quand le job n'existe pas (ou a été supprimé)
	ErrJobNotFound = errors.New("job not found")
	// ErrNotEnqueueable signale un job dont le statut interdit la mise en file
	ErrNotEnqueueable = errors.New("job cannot be queued in its current state")
)

// Capabilities indique quels champs optionnels le schéma de la base accepte.
// Les écritures consultent ce jeu de drapeaux au lieu de tenter puis rattraper une insertion.
type Capabilities struct {
	ProgressStage bool
	QualityFields bool
}

// DefaultCapabilities active tous les champs du schéma migré
func DefaultCapabilities() Capabilities {
	return Capabilities{ProgressStage: true, QualityFields: true}
}
