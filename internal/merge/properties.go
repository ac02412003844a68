package merge

import (
	"bytes"
	"regexp"
	"strings"
)

// propertyLine matches "key=value" lines; keys are word characters and dashes.
var propertyLine = regexp.MustCompile(`^\s*([\w-]+)\s*=\s*(.*?)\s*$`)

// property is one key=value pair in file order.
type property struct {
	key   string
	value string
}

// MergeServerProperties keeps the operator's value for every key both files
// define, adopts new keys with their shipped defaults and appends keys only
// the live file knows. Output follows the new file's layout, including its
// comment lines.
func MergeServerProperties(live, staged []byte) []byte {
	liveProps := parseProperties(live)

	liveValues := make(map[string]string, len(liveProps))
	for _, p := range liveProps {
		liveValues[p.key] = p.value
	}

	newline := "\n"
	if bytes.Contains(staged, []byte("\r\n")) {
		newline = "\r\n"
	}

	var (
		out  strings.Builder
		seen = make(map[string]struct{}, len(liveProps))
	)

	for _, line := range splitLines(staged) {
		match := propertyLine.FindStringSubmatch(line)
		if match == nil {
			out.WriteString(line)
			out.WriteString(newline)

			continue
		}

		key, value := match[1], match[2]
		if current, ok := liveValues[key]; ok {
			value = current
		}

		seen[key] = struct{}{}

		out.WriteString(key + "=" + value + newline)
	}

	for _, p := range liveProps {
		if _, ok := seen[p.key]; ok {
			continue
		}

		seen[p.key] = struct{}{}

		out.WriteString(p.key + "=" + p.value + newline)
	}

	return []byte(out.String())
}

// ParseServerProperties returns the key/value pairs of a server.properties
// file; later duplicates win.
func ParseServerProperties(data []byte) map[string]string {
	props := parseProperties(data)

	values := make(map[string]string, len(props))
	for _, p := range props {
		values[p.key] = p.value
	}

	return values
}

// parseProperties returns key/value pairs in file order, one per key.
func parseProperties(data []byte) []property {
	var (
		props []property
		index = make(map[string]int)
	)

	for _, line := range splitLines(data) {
		match := propertyLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		if i, ok := index[match[1]]; ok {
			props[i].value = match[2]
			continue
		}

		index[match[1]] = len(props)
		props = append(props, property{key: match[1], value: match[2]})
	}

	return props
}

// splitLines splits on \n, strips \r and drops the empty tail after a final newline.
func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}
