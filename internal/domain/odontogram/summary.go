package odontogram

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// statusPriority is the clinical rendering order of the status tally.
// Unknown statuses sort after all known ones.
var statusPriority = []string{
	StatusCaries, StatusObturado, StatusFracturado, StatusEndodoncia,
	StatusExtraccion, StatusCorona, StatusImplante, StatusPuente,
	StatusSellante, StatusSano, StatusAusente,
}

// surfaceOrder fixes the rendering order of per-surface issues.
var surfaceOrder = []string{
	"mesial", "distal", "vestibular", "lingual", "palatina", "oclusal", "incisal",
}

// Summarize renders the chart as a text block for quote and billing notes.
// The output is deterministic: the same chart always yields the same string.
func Summarize(o *Odontogram) string {
	var sections []string

	if tally := statusTally(o); tally != "" {
		sections = append(sections, tally)
	}
	if problems := problemTeeth(o); problems != "" {
		sections = append(sections, problems)
	}
	if notes := toothNotes(o); notes != "" {
		sections = append(sections, notes)
	}
	if general := generalInfo(o); general != "" {
		sections = append(sections, general)
	}
	if planned := plannedList(o); planned != "" {
		sections = append(sections, planned)
	}
	if o.Notes != nil && strings.TrimSpace(*o.Notes) != "" {
		sections = append(sections, strings.TrimSpace(*o.Notes))
	}

	return strings.TrimRight(strings.Join(sections, "\n\n"), " \t\n")
}

func statusTally(o *Odontogram) string {
	counts := make(map[string]int)
	for _, tooth := range o.Teeth {
		if tooth.Status != "" {
			counts[tooth.Status]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	rank := make(map[string]int, len(statusPriority))
	for i, s := range statusPriority {
		rank[s] = i
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		ri, iKnown := rank[statuses[i]]
		rj, jKnown := rank[statuses[j]]
		if iKnown && jKnown {
			return ri < rj
		}
		if iKnown != jKnown {
			return iKnown
		}
		return statuses[i] < statuses[j]
	})

	var b strings.Builder
	for _, s := range statuses {
		fmt.Fprintf(&b, "%s: %d diente(s)\n", capitalize(s), counts[s])
	}
	return strings.TrimRight(b.String(), "\n")
}

func problemTeeth(o *Odontogram) string {
	numbers := sortedToothNumbers(o)

	var lines []string
	for _, num := range numbers {
		tooth := o.Teeth[num]
		if tooth.Status == "" || tooth.Status == StatusSano || tooth.Status == StatusAusente {
			continue
		}

		line := fmt.Sprintf("Diente %s: %s", num, tooth.Status)
		if issues := surfaceIssues(tooth); issues != "" {
			line += " (" + issues + ")"
		}
		if tooth.Observation != "" {
			line += " - Obs: " + tooth.Observation
		}
		if tooth.PlannedTreatment != "" {
			line += " - Plan: " + tooth.PlannedTreatment
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return "Dientes con problemas:\n" + strings.Join(lines, "\n")
}

func surfaceIssues(tooth ToothState) string {
	if len(tooth.Surfaces) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(tooth.Surfaces))
	var parts []string
	for _, surface := range surfaceOrder {
		if issue, ok := tooth.Surfaces[surface]; ok && issue != "" {
			parts = append(parts, surface+": "+issue)
			seen[surface] = true
		}
	}

	var rest []string
	for surface, issue := range tooth.Surfaces {
		if !seen[surface] && issue != "" {
			rest = append(rest, surface+": "+issue)
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)

	return strings.Join(parts, ", ")
}

func toothNotes(o *Odontogram) string {
	numbers := sortedToothNumbers(o)

	var lines []string
	for _, num := range numbers {
		if note := o.Teeth[num].Note(); note != "" {
			lines = append(lines, fmt.Sprintf("Diente %s: %s", num, note))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Notas por diente:\n" + strings.Join(lines, "\n")
}

func generalInfo(o *Odontogram) string {
	var lines []string
	if o.ChiefComplaint != nil && strings.TrimSpace(*o.ChiefComplaint) != "" {
		lines = append(lines, "Motivo de consulta: "+strings.TrimSpace(*o.ChiefComplaint))
	}
	if o.GeneralObservations != nil && strings.TrimSpace(*o.GeneralObservations) != "" {
		lines = append(lines, "Observaciones generales: "+strings.TrimSpace(*o.GeneralObservations))
	}
	return strings.Join(lines, "\n")
}

func plannedList(o *Odontogram) string {
	var lines []string
	for i, treatment := range o.PlannedTreatments {
		if strings.TrimSpace(treatment) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(treatment)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Tratamientos planificados:\n" + strings.Join(lines, "\n")
}

// sortedToothNumbers returns tooth keys in numeric order, non-numeric keys
// last in lexicographic order.
func sortedToothNumbers(o *Odontogram) []string {
	numbers := make([]string, 0, len(o.Teeth))
	for num := range o.Teeth {
		numbers = append(numbers, num)
	}
	sort.Slice(numbers, func(i, j int) bool {
		ni, iErr := strconv.Atoi(numbers[i])
		nj, jErr := strconv.Atoi(numbers[j])
		if iErr == nil && jErr == nil {
			return ni < nj
		}
		if (iErr == nil) != (jErr == nil) {
			return iErr == nil
		}
		return numbers[i] < numbers[j]
	})
	return numbers
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
