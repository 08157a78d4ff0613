package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
)

// Entry is the structured wire representation of one entity: an ordered
// sequence of named members followed by zero or more encoded links. Member
// order is preserved exactly as the members were added, which is why the
// entry marshals itself instead of going through a map.
type Entry struct {
	TypeName string
	Members  []Member
	Links    []Link
}

// Member is one named value in an entry. The value is a wire primitive, a
// nested *Entry, or an ordered []any of either.
type Member struct {
	Name  string
	Value any
}

// Link is an encoded navigation property.
type Link struct {
	Name string
	Many bool
	Refs []Reference
}

// Reference addresses the target of a link, either by batch content-id or
// by entity set and formatted key.
type Reference interface {
	URI() string
}

// PendingReference stands in for an entity that has been queued in the
// current batch but has no real key yet.
type PendingReference struct {
	ContentID int64
}

func NewPendingReference(contentID int64) PendingReference {
	return PendingReference{ContentID: contentID}
}

func (r PendingReference) URI() string {
	return fmt.Sprintf("$%d", r.ContentID)
}

// ResolvedReference addresses an existing entity by entity set name and a
// formatted key segment, e.g. Employees(3).
type ResolvedReference struct {
	EntitySet string
	Key       string
}

func NewResolvedReference(entitySet, key string) ResolvedReference {
	return ResolvedReference{EntitySet: entitySet, Key: key}
}

func (r ResolvedReference) URI() string {
	return r.EntitySet + r.Key
}

func (e *Entry) AddMember(name string, value any) {
	e.Members = append(e.Members, Member{Name: name, Value: value})
}

func (e *Entry) AddLink(l Link) {
	e.Links = append(e.Links, l)
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	comma := func() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
	}

	if e.TypeName != "" {
		comma()
		buf.WriteString(`"@odata.type":`)
		buf.WriteString(strconv.Quote("#" + e.TypeName))
	}

	for _, m := range e.Members {
		comma()
		buf.WriteString(strconv.Quote(m.Name))
		buf.WriteByte(':')
		if err := marshalValue(&buf, m.Value); err != nil {
			return nil, err
		}
	}

	for _, l := range e.Links {
		comma()
		buf.WriteString(strconv.Quote(l.Name + "@odata.bind"))
		buf.WriteByte(':')

		if l.Many {
			buf.WriteByte('[')
			for i, ref := range l.Refs {
				if i > 0 {
					buf.WriteByte(',')
				}
				buf.WriteString(strconv.Quote(ref.URI()))
			}
			buf.WriteByte(']')
		} else if len(l.Refs) > 0 {
			buf.WriteString(strconv.Quote(l.Refs[0].URI()))
		} else {
			buf.WriteString("null")
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func marshalValue(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Entry:
		b, err := value.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, elem := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		// already validated by the coercion table, write as-is
		buf.WriteString(value.String())
	case time.Time:
		buf.WriteString(strconv.Quote(value.Format(time.RFC3339Nano)))
	case time.Duration:
		buf.WriteString(strconv.Quote(FormatDuration(value)))
	default:
		b, err := gojson.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal member value: %w", err)
		}
		buf.Write(b)
	}

	return nil
}

// FormatDuration renders a duration in the ISO 8601 form the wire format
// expects for Edm.Duration values, e.g. "PT1H30M" or "-PT0.5S".
func FormatDuration(d time.Duration) string {
	var buf bytes.Buffer

	if d < 0 {
		buf.WriteByte('-')
		d = -d
	}

	buf.WriteByte('P')

	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&buf, "%dD", days)
		d -= days * 24 * time.Hour
	}

	if d == 0 {
		if buf.Bytes()[buf.Len()-1] == 'P' {
			buf.WriteString("T0S")
		}
		return buf.String()
	}

	buf.WriteByte('T')

	if hours := d / time.Hour; hours > 0 {
		fmt.Fprintf(&buf, "%dH", hours)
		d -= hours * time.Hour
	}

	if minutes := d / time.Minute; minutes > 0 {
		fmt.Fprintf(&buf, "%dM", minutes)
		d -= minutes * time.Minute
	}

	if d > 0 {
		seconds := float64(d) / float64(time.Second)
		buf.WriteString(strconv.FormatFloat(seconds, 'f', -1, 64))
		buf.WriteByte('S')
	}

	return buf.String()
}
