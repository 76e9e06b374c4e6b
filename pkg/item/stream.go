package item

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// separator is the line that delimits records in the text stream format
// (§3 "Item Stream", §4.4). It must appear alone on its own line.
const separator = "---"

// EncodeStream writes items to w as the canonical text stream: each record
// is prefixed by a line reading exactly "---", followed by the item's JSON
// object indented two spaces, followed by a trailing newline.
func EncodeStream(w io.Writer, items []Item) error {
	for _, it := range items {
		if err := EncodeOne(w, it); err != nil {
			return err
		}
	}
	return nil
}

// EncodeOne writes a single "---"-prefixed JSON record for it.
func EncodeOne(w io.Writer, it Item) error {
	body, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("item: encode: %w", err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, body, "", "  "); err != nil {
		return fmt.Errorf("item: indent: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", separator, indented.String()); err != nil {
		return err
	}
	return nil
}

// DecodeStream parses a text stream, splitting on lines exactly equal to
// "---", JSON-parsing each intervening group, and dispatching by "type"
// (§4.4). A stream with no leading separator produces no items.
func DecodeStream(r io.Reader) ([]Item, error) {
	groups, err := splitGroups(r)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(groups))
	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			continue
		}
		var it Item
		if err := json.Unmarshal([]byte(g), &it); err != nil {
			return nil, fmt.Errorf("item: decode record: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}

// splitGroups returns the text found between consecutive "---" separator
// lines (the text after the last separator, if any, is the final group).
func splitGroups(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var groups []string
	var cur strings.Builder
	seenSeparator := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == separator {
			if seenSeparator {
				groups = append(groups, cur.String())
			}
			cur.Reset()
			seenSeparator = true
			continue
		}
		if seenSeparator {
			cur.WriteString(line)
			cur.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("item: scan stream: %w", err)
	}
	if seenSeparator {
		groups = append(groups, cur.String())
	}
	return groups, nil
}
