package message

// Typed accessors. Getters return the zero value when the field is absent;
// use Has to tell absent from empty.

func (m *Message) Source() string       { return str(m.rec.Source) }
func (m *Message) Hostname() string     { return str(m.rec.Hostname) }
func (m *Message) Category() string     { return str(m.rec.Category) }
func (m *Message) ProcessName() string  { return str(m.rec.ProcessName) }
func (m *Message) Summary() string      { return str(m.rec.Summary) }
func (m *Message) Severity() string     { return str(m.rec.Severity) }
func (m *Message) Timestamp() string    { return str(m.rec.Timestamp) }
func (m *Message) UTCTimestamp() string { return str(m.rec.UTCTimestamp) }

func (m *Message) SetSource(v string)       { m.rec.Source = &v }
func (m *Message) SetHostname(v string)     { m.rec.Hostname = &v }
func (m *Message) SetCategory(v string)     { m.rec.Category = &v }
func (m *Message) SetProcessName(v string)  { m.rec.ProcessName = &v }
func (m *Message) SetSummary(v string)      { m.rec.Summary = &v }
func (m *Message) SetSeverity(v string)     { m.rec.Severity = &v }
func (m *Message) SetTimestamp(v string)    { m.rec.Timestamp = &v }
func (m *Message) SetUTCTimestamp(v string) { m.rec.UTCTimestamp = &v }

// ProcessID returns the process id, or 0 when absent.
func (m *Message) ProcessID() int {
	if m.rec.ProcessID == nil {
		return 0
	}
	return *m.rec.ProcessID
}

func (m *Message) SetProcessID(pid int) { m.rec.ProcessID = &pid }

// Tags returns the tag list. The slice is shared with the message.
func (m *Message) Tags() []string {
	if m.rec.Tags == nil {
		return nil
	}
	return *m.rec.Tags
}

// SetTags replaces the tag list with a copy of tags. A nil slice sets an
// empty list, not an absent field.
func (m *Message) SetTags(tags []string) {
	cp := make([]string, len(tags))
	copy(cp, tags)
	m.rec.Tags = &cp
}

// AddTag appends tag, creating the list if needed.
func (m *Message) AddTag(tag string) {
	m.SetTags(append(m.Tags(), tag))
}

// Details returns the live details map, creating an empty one when the
// field is absent so callers can add entries directly.
func (m *Message) Details() Details {
	if m.rec.Details == nil || *m.rec.Details == nil {
		d := Details{}
		m.rec.Details = &d
	}
	return *m.rec.Details
}

// SetDetails replaces the details map. A nil map sets an empty map.
func (m *Message) SetDetails(d Details) {
	if d == nil {
		d = Details{}
	}
	m.rec.Details = &d
}

// SetDetail sets a single details entry.
func (m *Message) SetDetail(key string, value any) {
	m.Details()[key] = value
}

// Detail returns a single details entry without creating the map.
func (m *Message) Detail(key string) (any, bool) {
	if m.rec.Details == nil {
		return nil, false
	}
	v, ok := (*m.rec.Details)[key]
	return v, ok
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
