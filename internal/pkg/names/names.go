package names

import "strings"

// Match reports whether two declared names refer to the same thing,
// ignoring case and singular/plural form. Schema property lookups and
// entity set resolution both go through here, so "employees" finds a
// navigation property declared as "Employee" and vice versa.
func Match(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		return true
	}

	return Singular(a) == Singular(b)
}

// Singular reduces a (lower case) name to a heuristic singular form.
func Singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ses"),
		strings.HasSuffix(name, "xes"),
		strings.HasSuffix(name, "zes"),
		strings.HasSuffix(name, "ches"),
		strings.HasSuffix(name, "shes"):
		return name[:len(name)-2]
	case strings.HasSuffix(name, "ss"):
		return name
	case strings.HasSuffix(name, "s"):
		return name[:len(name)-1]
	}

	return name
}
