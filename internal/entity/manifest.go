package entity

// RawSection is one [filename] block of a download manifest, exactly as
// written: the header with brackets stripped and the ordered key/value
// pairs below it. It is a transient parse artifact, never mutated after
// construction.
type RawSection struct {
	Name   string  // Destination-relative path, taken verbatim from the header
	Line   int     // Line number of the header, for error context
	Fields []Field // Key/value pairs in file order, repeated marker keys preserved
}

// Field is a single `key = value` line of a section.
type Field struct {
	Key   string
	Value string
	Line  int
}
