// internal/pipeline/jsonextract.go
package pipeline

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ErrNoJSON signale qu'aucun objet JSON n'a pu être extrait d'une réponse
var ErrNoJSON = errors.New("could not extract JSON from response")

// ExtractJSON retrouve l'objet JSON contenu dans une réponse du modèle.
// Méthodes essayées dans l'ordre: réponse entière, bloc ```json, premier bloc ```,
// plus grand span {...} (premier objet de plus de deux clés), chaîne JSON doublement encodée.
func ExtractJSON(response string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(response)

	if obj, ok := parseObject(trimmed); ok {
		return obj, nil
	}

	if block, ok := fencedBlock(response, "```json"); ok {
		if obj, ok := parseObject(block); ok {
			return obj, nil
		}
	}

	if block, ok := fencedBlock(response, "```"); ok {
		if obj, ok := parseObject(block); ok {
			return obj, nil
		}
	}

	for _, candidate := range objectCandidates(response) {
		if obj, ok := parseObject(candidate); ok && len(obj) > 2 {
			return obj, nil
		}
	}

	if strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			if obj, ok := parseObject(strings.TrimSpace(inner)); ok {
				return obj, nil
			}
		}
	}

	return nil, ErrNoJSON
}

// DecodeJSON extrait l'objet de la réponse et le décode dans out
func DecodeJSON(response string, out interface{}) error {
	obj, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return remarshal(obj, out)
}

func remarshal(in interface{}, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func parseObject(s string) (map[string]interface{}, bool) {
	if s == "" {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// fencedBlock retourne le contenu entre l'ouverture fence et la clôture ``` suivante
func fencedBlock(response, fence string) (string, bool) {
	start := strings.Index(response, fence)
	if start < 0 {
		return "", false
	}
	rest := response[start+len(fence):]
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}

// objectCandidates liste le span allant du premier '{' au dernier '}', puis les
// objets équilibrés trouvés dans le texte, du plus long au plus court.
func objectCandidates(response string) []string {
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first < 0 || last <= first {
		return nil
	}

	candidates := []string{response[first : last+1]}
	seen := map[string]bool{candidates[0]: true}

	var balanced []string
	for i := first; i <= last; i++ {
		if response[i] != '{' {
			continue
		}
		if end := matchingBrace(response, i); end > 0 {
			span := response[i : end+1]
			if !seen[span] {
				seen[span] = true
				balanced = append(balanced, span)
			}
		}
	}
	sort.SliceStable(balanced, func(a, b int) bool { return len(balanced[a]) > len(balanced[b]) })
	return append(candidates, balanced...)
}

// matchingBrace retourne l'indice de l'accolade fermant celle ouverte en start, ou -1
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
