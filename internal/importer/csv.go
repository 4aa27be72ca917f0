package importer

import "strings"

// splitLine splits one CSV line on commas outside double quotes. A
// quote character toggles the in-quotes state and is dropped; fields
// are trimmed of surrounding whitespace. There is no quote escaping;
// this matches the format the admin bulk-upload template produces.
func splitLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// splitMulti breaks a comma-joined multi-value field into trimmed
// tokens, dropping empties. Returns nil when nothing remains so the
// column stays NULL rather than an empty array.
func splitMulti(field string) []string {
	if field == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(field, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
