package osmsource

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lintang/routex/pkg/graphbuilder"
	"lintang/routex/pkg/profile"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="0.000" lon="0.000" visible="true"/>
  <node id="2" lat="0.000" lon="0.001" visible="true"/>
  <node id="3" lat="0.001" lon="0.001" visible="true"/>
  <node id="4" lat="0.001" lon="0.000" visible="true"/>
  <way id="10" visible="true">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="11" visible="true">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="highway" v="residential"/>
  </way>
  <relation id="100" visible="true">
    <member type="way" ref="10" role="from"/>
    <member type="node" ref="3" role="via"/>
    <member type="way" ref="11" role="to"/>
    <tag k="type" v="restriction"/>
    <tag k="restriction" v="no_left_turn"/>
  </relation>
</osm>
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func assertSample(t *testing.T, src graphbuilder.Source) {
	t.Helper()
	require.Len(t, src.Nodes, 4)
	require.Len(t, src.Ways, 2)
	require.Len(t, src.Relations, 1)

	assert.Equal(t, osm.NodeID(3), src.Nodes[2].ID)
	assert.Equal(t, 0.001, src.Nodes[2].Lat)
	assert.Equal(t, "residential", src.Ways[0].Tags.Find("highway"))
	assert.Len(t, src.Ways[0].Nodes, 3)
	assert.Equal(t, "no_left_turn", src.Relations[0].Tags.Find("restriction"))
	assert.Len(t, src.Relations[0].Members, 3)
}

func TestLoadXML(t *testing.T) {
	path := writeFile(t, "sample.osm", []byte(sampleXML))

	src, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, src)
}

func TestLoadGzipDetectedFromContent(t *testing.T) {
	// no telling suffix, the gzip magic decides
	path := writeFile(t, "sample.bin", gzipped(t, []byte(sampleXML)))

	src, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assertSample(t, src)
}

func TestLoadExplicitFormat(t *testing.T) {
	path := writeFile(t, "sample.data", gzipped(t, []byte(sampleXML)))

	src, err := Load(context.Background(), path, Options{Format: XMLGzip})
	require.NoError(t, err)
	assertSample(t, src)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.osm"), Options{})
	assert.Error(t, err)

	path := writeFile(t, "garbage.bin", []byte("definitely not osm data"))
	_, err = Load(context.Background(), path, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadFeedsGraphBuilder(t *testing.T) {
	src, err := Read(context.Background(), strings.NewReader(sampleXML), Options{})
	require.NoError(t, err)

	b := graphbuilder.New(profile.MustForKind(profile.Car))
	g, err := b.Build(src)
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 6, g.NumEdges())
	assert.Equal(t, 1, b.Stats().RestrictionsResolved)
}

func TestDetectFormat(t *testing.T) {
	pbf := append([]byte{0x00, 0x00, 0x00, 0x0d, 0x0a, 0x09}, []byte("OSMHeader")...)

	tests := []struct {
		name   string
		header []byte
		want   Format
	}{
		{"xml declaration", []byte(`<?xml version="1.0"?>`), XML},
		{"xml with leading whitespace", []byte("\n  <osm version"), XML},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, XMLGzip},
		{"bzip2", []byte("BZh91AY&SY"), XMLBzip2},
		{"pbf", pbf, PBF},
		{"garbage", []byte("hello world"), Unknown},
		{"empty", nil, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.header))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":        Unknown,
		"auto":    Unknown,
		"osm":     XML,
		"xml.gz":  XMLGzip,
		".bz2":    XMLBzip2,
		"osm.pbf": PBF,
		"PBF":     PBF,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("shapefile")
	assert.Error(t, err)
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, PBF, formatFromName("/data/jawa-latest.osm.pbf"))
	assert.Equal(t, XMLGzip, formatFromName("monaco.osm.gz"))
	assert.Equal(t, XMLBzip2, formatFromName("monaco.osm.bz2"))
	assert.Equal(t, XML, formatFromName("Monaco.OSM"))
	assert.Equal(t, Unknown, formatFromName("monaco"))
}

func TestFingerprint(t *testing.T) {
	a := writeFile(t, "a.osm", []byte(sampleXML))
	b := writeFile(t, "b.osm", []byte(sampleXML))
	c := writeFile(t, "c.osm", []byte(strings.Replace(sampleXML, "0.001", "0.002", 1)))

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	fc, err := Fingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)

	_, err = Fingerprint(filepath.Join(t.TempDir(), "missing.osm"))
	assert.Error(t, err)
}
