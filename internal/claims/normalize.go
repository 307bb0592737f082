package claims

import (
	"strings"

	"github.com/tidwall/gjson"
)

// objectNameKeys are the fields tried, in priority order, when a group is
// expressed as an object rather than a plain string.
var objectNameKeys = []string{"displayName", "value", "name"}

const groupSeparators = ",;|"

// NormalizeGroups converts any of the group/role claim shapes identity
// providers emit into an ordered set of distinct group names.
//
// Deduplication is case-insensitive but the output keeps the casing of the
// first occurrence of each logical group, in first-seen order. The asymmetry
// is deliberate: group comparison downstream is case-insensitive, yet the
// names shown in denial reasons should read the way the provider wrote them.
func NormalizeGroups(raw gjson.Result) []string {
	return dedupe(extractGroups(raw))
}

func extractGroups(raw gjson.Result) []string {
	switch {
	case !raw.Exists() || raw.Type == gjson.Null:
		return nil
	case raw.IsArray():
		var out []string
		for _, el := range raw.Array() {
			if el.IsObject() {
				out = append(out, objectName(el))
				continue
			}
			out = append(out, strings.TrimSpace(el.String()))
		}
		return out
	case raw.IsObject():
		if values := raw.Get("values"); values.IsArray() {
			var out []string
			for _, el := range values.Array() {
				out = append(out, strings.TrimSpace(el.String()))
			}
			return out
		}
		var out []string
		raw.ForEach(func(_, v gjson.Result) bool {
			out = append(out, strings.TrimSpace(v.String()))
			return true
		})
		return out
	case raw.Type == gjson.String:
		return splitGroupList(raw.String())
	default:
		return []string{strings.TrimSpace(raw.String())}
	}
}

// splitGroupList splits a single delimited string into group names. When the
// string carries explicit separators, whitespace around them is swallowed but
// spaces inside a name survive ("Mi casa - Admin, ..." stays intact); a
// string with no explicit separator falls back to whitespace splitting.
func splitGroupList(s string) []string {
	var pieces []string
	if strings.ContainsAny(s, groupSeparators) {
		pieces = strings.FieldsFunc(s, func(r rune) bool {
			return strings.ContainsRune(groupSeparators, r)
		})
	} else {
		pieces = strings.Fields(s)
	}
	for i := range pieces {
		pieces[i] = strings.TrimSpace(pieces[i])
	}
	return pieces
}

func objectName(obj gjson.Result) string {
	for _, key := range objectNameKeys {
		if v := strings.TrimSpace(obj.Get(key).String()); v != "" {
			return v
		}
	}
	return ""
}

func dedupe(groups []string) []string {
	if len(groups) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(groups))
	var out []string
	for _, g := range groups {
		if g == "" {
			continue
		}
		lower := strings.ToLower(g)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, g)
	}
	return out
}
