package progress

import (
	"sort"
	"strings"
)

// DefaultTopSkills is how many skills the dashboard shows.
const DefaultTopSkills = 6

// Skill is the best amount observed for one skill.
type Skill struct {
	Name   string
	Amount float64
}

// SkillName turns a transaction type such as "skill_front-end" into "FRONT END".
func SkillName(txType string) string {
	name := strings.TrimPrefix(txType, SkillTypePrefix)
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.ToUpper(strings.TrimSpace(name))
}

// TopSkills keeps the maximum positive amount per skill name and returns the
// n best, ordered by amount descending with ties broken by name.
func TopSkills(txs []Transaction, n int) []Skill {
	best := make(map[string]float64)
	for _, tx := range txs {
		if !strings.HasPrefix(tx.Type, SkillTypePrefix) || tx.Amount <= 0 {
			continue
		}
		name := SkillName(tx.Type)
		if name == "" {
			continue
		}
		if tx.Amount > best[name] {
			best[name] = tx.Amount
		}
	}

	skills := make([]Skill, 0, len(best))
	for name, amount := range best {
		skills = append(skills, Skill{Name: name, Amount: amount})
	}
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Amount != skills[j].Amount {
			return skills[i].Amount > skills[j].Amount
		}
		return skills[i].Name < skills[j].Name
	})
	if n > 0 && len(skills) > n {
		skills = skills[:n]
	}
	return skills
}
