package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	Fields    map[string]string // remaining fields, stringified
	Raw       string            // set when the line was not JSON
}

// reserved keys are lifted into Entry fields rather than Fields.
var reserved = map[string]bool{
	"time": true, "level": true, "component": true, "message": true, "error": true,
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back with only Raw set.
func Parse(line string) Entry {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return Entry{Raw: line}
	}
	e := Entry{
		Level:     strings.ToUpper(str(obj["level"])),
		Component: str(obj["component"]),
		Message:   str(obj["message"]),
		Error:     str(obj["error"]),
	}
	if ts := str(obj["time"]); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Time = parsed
		}
	}
	for k, v := range obj {
		if reserved[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[k] = str(v)
	}
	return e
}

// Tail reads and parses the last maxLines entries of path.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// Format renders an entry as a single plain-text line:
// "15:04:05 LEVEL [component] message key=value error=...".
func Format(e Entry) string {
	if e.Raw != "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(e.Level)
		b.WriteByte(' ')
	}
	if e.Component != "" {
		b.WriteString("[" + e.Component + "] ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + "=" + e.Fields[k])
	}
	if e.Error != "" {
		b.WriteString(" error=" + e.Error)
	}
	return b.String()
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}
