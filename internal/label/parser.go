package label

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extraction is a best-effort read of a medication label. Fields the text
// does not yield stay empty so the entry form can ask for them.
type Extraction struct {
	Name         string
	Dosage       string
	Instructions string
	Frequency    string
	Times        []string
	SpecificDays []time.Weekday
	EveryXDays   int
}

var (
	dosagePattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|iu|units?|tablets?|capsules?|puffs?|drops?)\b`)
	everyHoursRe     = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s*(?:hours|hrs|h)\b`)
	everyDaysRe      = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s*days\b`)
	timesPerDayRe    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:times?|x)\s*(?:a|per)?\s*day\b`)
	everyOtherDayRe  = regexp.MustCompile(`(?i)\bevery\s+other\s+day\b`)
	onceDailyRe      = regexp.MustCompile(`(?i)\b(?:once\s+(?:a\s+|per\s+)?daily|once\s+(?:a|per)\s+day|daily|every\s+day)\b`)
	twiceDailyRe     = regexp.MustCompile(`(?i)\btwice\s+(?:a\s+|per\s+)?(?:daily|day)\b`)
	threeTimesRe     = regexp.MustCompile(`(?i)\b(?:three\s+times|thrice)\s+(?:a\s+|per\s+)?(?:daily|day)\b`)
	asNeededRe       = regexp.MustCompile(`(?i)\bas\s+needed\b|\bprn\b|\bwhen\s+required\b`)
	instructionHints = []string{"take with", "with food", "with water", "on an empty stomach", "before", "after", "avoid", "do not", "swallow", "chew"}
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Parse runs line heuristics over label text. Explicit "Field: value" lines
// win; otherwise the first line is taken as the name and frequency phrasing
// is matched anywhere in the text.
func Parse(text string) Extraction {
	var ex Extraction
	lines := splitLines(text)

	for _, line := range lines {
		if key, value, ok := splitLabelLine(line); ok {
			applyLabeled(&ex, key, value)
		}
	}
	if ex.Name == "" && len(lines) > 0 {
		ex.Name = firstNameCandidate(lines)
	}
	if ex.Dosage == "" {
		if m := dosagePattern.FindString(text); m != "" {
			ex.Dosage = strings.ToLower(strings.Join(strings.Fields(m), ""))
		}
	}
	if ex.Frequency == "" {
		applyFrequency(&ex, text)
	}
	if ex.Instructions == "" {
		ex.Instructions = firstInstructionLine(lines)
	}
	return ex
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitLabelLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 || idx == len(line)-1 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func applyLabeled(ex *Extraction, key, value string) {
	switch {
	case key == "name" || key == "medication" || key == "medicine" || key == "drug":
		ex.Name = value
	case key == "dosage" || key == "dose" || key == "strength":
		ex.Dosage = value
	case key == "instructions" || key == "directions" || key == "sig":
		ex.Instructions = value
		if ex.Frequency == "" {
			applyFrequency(ex, value)
		}
	case strings.Contains(key, "frequency") || strings.Contains(key, "schedule"):
		applyFrequency(ex, value)
	}
}

// applyFrequency maps phrasing onto the schedule model. Suggested times for
// N-per-day splits are evenly spread across waking hours.
func applyFrequency(ex *Extraction, text string) {
	switch {
	case asNeededRe.MatchString(text):
		ex.Frequency = "as_needed"
	case everyOtherDayRe.MatchString(text):
		ex.Frequency = "every_x_days"
		ex.EveryXDays = 2
	case everyDaysRe.MatchString(text):
		if n := firstInt(everyDaysRe.FindStringSubmatch(text)); n > 0 {
			ex.Frequency = "every_x_days"
			ex.EveryXDays = n
		}
	case everyHoursRe.MatchString(text):
		if h := firstInt(everyHoursRe.FindStringSubmatch(text)); h > 0 && h <= 12 {
			setPerDay(ex, 24/h)
		}
	case threeTimesRe.MatchString(text):
		setPerDay(ex, 3)
	case twiceDailyRe.MatchString(text):
		setPerDay(ex, 2)
	case timesPerDayRe.MatchString(text):
		if n := firstInt(timesPerDayRe.FindStringSubmatch(text)); n > 0 {
			setPerDay(ex, n)
		}
	default:
		if days := findWeekdays(text); len(days) > 0 {
			ex.Frequency = "specific_days"
			ex.SpecificDays = days
			return
		}
		if onceDailyRe.MatchString(text) {
			setPerDay(ex, 1)
		}
	}
}

func setPerDay(ex *Extraction, n int) {
	if n <= 0 {
		return
	}
	if n == 1 {
		ex.Frequency = "daily"
		ex.Times = []string{"08:00"}
		return
	}
	if n > 6 {
		n = 6
	}
	ex.Frequency = "multiple_daily"
	ex.Times = spreadTimes(n)
}

// spreadTimes spaces n doses evenly between 08:00 and 22:00.
func spreadTimes(n int) []string {
	const startMin, endMin = 8 * 60, 22 * 60
	step := (endMin - startMin) / (n - 1)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		m := startMin + i*step
		out = append(out, twoDigit(m/60)+":"+twoDigit(m%60))
	}
	return out
}

func twoDigit(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func findWeekdays(text string) []time.Weekday {
	seen := make(map[time.Weekday]bool)
	out := make([]time.Weekday, 0)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		day, ok := weekdayNames[word]
		if !ok || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	if len(out) < 1 {
		return nil
	}
	return out
}

func firstInt(match []string) int {
	if len(match) < 2 {
		return 0
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return n
}

// firstNameCandidate takes the first line that is not obviously a pure
// strength or an instruction. A trailing strength is stripped so
// "Metformin 500mg" yields a clean name.
func firstNameCandidate(lines []string) string {
	for _, line := range lines {
		if looksLikeInstruction(strings.ToLower(line)) {
			continue
		}
		loc := dosagePattern.FindStringIndex(line)
		if loc == nil {
			return line
		}
		rest := strings.TrimSpace(line[:loc[0]] + " " + line[loc[1]:])
		if rest == "" {
			continue
		}
		if loc[0] > 0 {
			return strings.TrimSpace(line[:loc[0]])
		}
		return rest
	}
	return ""
}

func firstInstructionLine(lines []string) string {
	for _, line := range lines {
		if looksLikeInstruction(strings.ToLower(line)) {
			return line
		}
	}
	return ""
}

func looksLikeInstruction(lower string) bool {
	for _, hint := range instructionHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
