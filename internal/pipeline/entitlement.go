package pipeline

import "strings"

// Entitlement est le niveau de droits d'un job, résolu depuis le tier du propriétaire
type Entitlement string

const (
	EntitlementFree Entitlement = "free"
	EntitlementPaid Entitlement = "paid"
)

// QuizProfile détermine la taille et la composition d'une évaluation
type QuizProfile string

const (
	// QuizBasic: 4 QCM (2 recall, 2 understand)
	QuizBasic QuizProfile = "basic"
	// QuizFull: 7 QCM (recall, understand, apply, analyze) et une réponse libre
	QuizFull QuizProfile = "full"
)

// Profile regroupe les choix de génération dépendant des droits
type Profile struct {
	ForcePreserve bool
	Quiz          QuizProfile
	IncludeExtras bool
}

// ResolveEntitlement classe un tier selon la liste configurée des tiers gratuits
func ResolveEntitlement(tier string, freeTiers []string) Entitlement {
	tier = strings.ToLower(strings.TrimSpace(tier))
	for _, free := range freeTiers {
		if tier == strings.ToLower(strings.TrimSpace(free)) {
			return EntitlementFree
		}
	}
	return EntitlementPaid
}

// Profile retourne les paramètres de génération associés au droit
func (e Entitlement) Profile() Profile {
	if e == EntitlementFree {
		return Profile{ForcePreserve: true, Quiz: QuizBasic, IncludeExtras: false}
	}
	return Profile{ForcePreserve: false, Quiz: QuizFull, IncludeExtras: true}
}
