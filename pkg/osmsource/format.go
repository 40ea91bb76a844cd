package osmsource

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the on-disk encoding of an OpenStreetMap extract.
type Format int

const (
	Unknown Format = iota
	XML
	XMLGzip
	XMLBzip2
	PBF
)

func (f Format) String() string {
	switch f {
	case XML:
		return "xml"
	case XMLGzip:
		return "xml.gz"
	case XMLBzip2:
		return "xml.bz2"
	case PBF:
		return "pbf"
	}
	return "unknown"
}

// ParseFormat accepts the names printed by Format.String plus the usual file suffixes.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "unknown", "auto":
		return Unknown, nil
	case "xml", "osm":
		return XML, nil
	case "xml.gz", "osm.gz", "gz", "gzip":
		return XMLGzip, nil
	case "xml.bz2", "osm.bz2", "bz2", "bzip2":
		return XMLBzip2, nil
	case "pbf", "osm.pbf":
		return PBF, nil
	}
	return Unknown, fmt.Errorf("unknown osm file format %q", s)
}

// formatFromName guesses the format from the file suffix.
func formatFromName(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".pbf"):
		return PBF
	case strings.HasSuffix(name, ".gz"):
		return XMLGzip
	case strings.HasSuffix(name, ".bz2"):
		return XMLBzip2
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return XML
	}
	return Unknown
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	pbfHeader  = []byte("OSMHeader")
)

// sniffLen is how many leading bytes DetectFormat needs to decide.
const sniffLen = 16

// DetectFormat recognizes a format from the first bytes of a file.
func DetectFormat(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return XMLGzip
	case bytes.HasPrefix(header, bzip2Magic):
		return XMLBzip2
	case len(header) > 4 && bytes.Contains(header[4:], pbfHeader):
		// 4 byte blob header length, then the "OSMHeader" blob type
		return PBF
	}
	trimmed := bytes.TrimLeft(header, " \t\r\n\xef\xbb\xbf")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return XML
	}
	return Unknown
}
