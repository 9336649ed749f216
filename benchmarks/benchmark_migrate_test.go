package benchmarks_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
	"github.com/reoring/datafixer/fixes"
	"github.com/reoring/datafixer/source"
)

// chunkJSON builds a legacy chunk with n riding entities and n chests.
func chunkJSON(n int) []byte {
	var b strings.Builder
	b.WriteString(`{"Level":{"xPos":0,"zPos":0,"Entities":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"id":"arrow","player":true,"HealF":%d,"Pos":[%d.5,64,0.5],"Riding":{"id":"zombie","IsVillager":true,"VillagerProfession":%d}}`, i%20, i, i%6)
	}
	b.WriteString(`],"TileEntities":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"id":"Chest","Items":[{"id":"minecraft:arrow","Count":64},{"id":"zombie_pigman_spawn_egg","Count":1}]}`)
	}
	b.WriteString(`]}}`)
	return []byte(b.String())
}

func catalog(tb testing.TB) *df.Fixer {
	tb.Helper()
	f, err := fixes.New()
	if err != nil {
		tb.Fatalf("catalog build failed: %v", err)
	}
	return f
}

func benchmarkMigrate(b *testing.B, n int) {
	f := catalog(b)
	data := chunkJSON(n)
	doc, err := source.JSON(data)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Migrate(fixes.Chunk, doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Migrate_Chunk_Small(b *testing.B) { benchmarkMigrate(b, 4) }
func Benchmark_Migrate_Chunk_Large(b *testing.B) { benchmarkMigrate(b, 512) }

// An up to date document only pays for the input check.
func Benchmark_Migrate_Chunk_Current(b *testing.B) {
	f := catalog(b)
	doc, err := source.JSON(chunkJSON(512))
	if err != nil {
		b.Fatal(err)
	}
	doc, err = f.Migrate(fixes.Chunk, doc)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Migrate(fixes.Chunk, doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_JSON(b *testing.B) {
	data := chunkJSON(512)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := source.JSON(data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Decode_YAML(b *testing.B) {
	doc, err := source.JSON(chunkJSON(512))
	if err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer
	if err := source.EncodeYAML(&buf, doc); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := source.YAML(data); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Encode_JSON(b *testing.B) {
	doc, err := source.JSON(chunkJSON(512))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := source.MarshalJSON(doc); err != nil {
			b.Fatal(err)
		}
	}
}

var sink dynamic.Value

func Benchmark_Set_Wide(b *testing.B) {
	doc, err := source.JSON(chunkJSON(64))
	if err != nil {
		b.Fatal(err)
	}
	level := doc.At("Level")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink = level.Set("xPos", dynamic.Int(int64(i)))
	}
}
