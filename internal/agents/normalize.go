package agents

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalisation runs on the raw model answer before it is validated, so
// every helper checks types and leaves unexpected values for the
// validator to report.

var months = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

var (
	reYearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
	reYear      = regexp.MustCompile(`^\d{4}$`)
	reMonthName = regexp.MustCompile(`^([a-z]{3})[a-z]*\.?\s*/?\s*(\d{4})$`)
	reNumeric   = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
)

// normalizeDate rewrites common date spellings as YYYY-MM; "current" and
// "present" become "present". Unrecognised input is returned unchanged.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case lower == "present" || lower == "current" || lower == "now":
		return "present"
	case reYearMonth.MatchString(s):
		return s
	case reYear.MatchString(s):
		return s + "-01"
	}
	if m := reMonthName.FindStringSubmatch(lower); m != nil {
		if mm, ok := months[m[1]]; ok {
			return m[2] + "-" + mm
		}
	}
	if m := reNumeric.FindStringSubmatch(s); m != nil {
		mm := m[1]
		if len(mm) == 1 {
			mm = "0" + mm
		}
		return m[2] + "-" + mm
	}
	return s
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeList squashes whitespace, drops empty entries and, with fold,
// lower-cases and removes duplicates.
func normalizeList(v interface{}, fold bool) interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return v
	}
	out := make([]interface{}, 0, len(arr))
	seen := map[string]bool{}
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			out = append(out, item)
			continue
		}
		s = squash(s)
		if fold {
			s = strings.ToLower(s)
			if seen[s] {
				continue
			}
			seen[s] = true
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeResume(m map[string]interface{}) {
	if s, ok := m["summary"].(string); ok {
		m["summary"] = squash(s)
	}
	if exp, ok := m["experience"].([]interface{}); ok {
		for _, e := range exp {
			item, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			for _, k := range []string{"company", "role"} {
				if s, ok := item[k].(string); ok {
					item[k] = squash(s)
				}
			}
			for _, k := range []string{"start_date", "end_date"} {
				if s, ok := item[k].(string); ok {
					item[k] = normalizeDate(s)
				}
			}
			if b, ok := item["bullets"]; ok {
				item["bullets"] = normalizeList(b, false)
			}
		}
	}
	if v, ok := m["skills"]; ok {
		m["skills"] = normalizeList(v, true)
	}
	for _, k := range []string{"education", "certifications"} {
		if v, ok := m[k]; ok {
			m[k] = normalizeList(v, false)
		}
	}
	if contact, ok := m["contact"].(map[string]interface{}); ok {
		if links, ok := contact["links"].([]interface{}); ok {
			for _, l := range links {
				if link, ok := l.(map[string]interface{}); ok {
					labelLink(link)
				}
			}
		}
	}
}

var seniorityWords = []struct{ word, level string }{
	{"intern", "junior"}, {"junior", "junior"}, {"jr", "junior"}, {"entry", "junior"}, {"associate", "junior"},
	{"intermediate", "mid"}, {"middle", "mid"}, {"mid", "mid"}, {"regular", "mid"},
	{"principal", "lead"}, {"lead", "lead"}, {"director", "lead"}, {"head", "lead"}, {"chief", "lead"}, {"vp", "lead"},
	{"senior", "senior"}, {"sr", "senior"}, {"staff", "senior"}, {"manager", "senior"},
}

// normalizeSeniority maps free-form seniority onto the four accepted
// levels. Non-string values are left for validation.
func normalizeSeniority(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return r == ' ' || r == '-' || r == '/' || r == '.' }) {
		for _, sw := range seniorityWords {
			if w == sw.word {
				return sw.level
			}
		}
	}
	return "mid"
}

func normalizeJobDescription(m map[string]interface{}) {
	if s, ok := m["title"].(string); ok {
		m["title"] = squash(s)
	}
	for _, k := range []string{"required_skills", "preferred_skills", "keywords"} {
		if v, ok := m[k]; ok {
			m[k] = normalizeList(v, true)
		}
	}
	if v, ok := m["responsibilities"]; ok {
		m["responsibilities"] = normalizeList(v, false)
	}
	if v, ok := m["seniority"]; ok {
		m["seniority"] = normalizeSeniority(v)
	}
}

// labelLink fills a missing label with the link's registrable domain.
func labelLink(link map[string]interface{}) {
	if l, ok := link["label"].(string); ok && strings.TrimSpace(l) != "" {
		return
	}
	raw, ok := link["url"].(string)
	if !ok || raw == "" {
		return
	}
	link["label"] = LinkLabel(raw)
}

// LinkLabel returns a short display label for a URL: its eTLD+1 without a
// leading www, falling back to the host and then to the raw string.
func LinkLabel(raw string) string {
	candidate := strings.TrimSpace(raw)
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := u.Hostname()
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return strings.TrimPrefix(etld, "www.")
	}
	return strings.TrimPrefix(host, "www.")
}
