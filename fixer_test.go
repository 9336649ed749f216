package datafixer_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
)

func TestMigrate_ArrowPickup(t *testing.T) {
	f := newFixer(t, arrowPickup(2))

	out, err := f.Update(refEntity, dynamic.Map("id", "minecraft:arrow", "player", true), 1, 2)
	require.NoError(t, err)
	requireValue(t, dynamic.Map("id", "minecraft:arrow", "pickup", 1), out)

	out, err = f.Update(refEntity, dynamic.Map("id", "arrow", "player", false), 1, 2)
	require.NoError(t, err)
	requireValue(t, dynamic.Map("id", "minecraft:arrow", "pickup", 0), out)
}

func TestMigrate_ShulkerColor(t *testing.T) {
	f := newFixer(t, shulkerColor(2))

	out, err := f.Update(refEntity, dynamic.Map("id", "minecraft:shulker", "Color", 10), 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(16), out.GetInt("Color", 0))

	out, err = f.Update(refEntity, dynamic.Map("id", "minecraft:shulker", "Color", 3), 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.GetInt("Color", 0))
}

func TestMigrate_SiblingBranchUntouched(t *testing.T) {
	f := newFixer(t, arrowPickup(2))
	in := dynamic.Map("id", "minecraft:trident", "player", true, "Extra", dynamic.Map("x", 1))

	out, err := f.Update(refEntity, in, 1, 2)
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out), "trident must come back as the very same value")
}

func TestMigrate_EverywhereAtAnyDepth(t *testing.T) {
	f := newFixer(t, arrowPickup(2))

	deep := arrow(true, arrow(false, arrow(true)))
	item := dynamic.Map("id", "minecraft:bow", "Count", 1, "tag", dynamic.Map("EntityTag", arrow(true)))
	chest := dynamic.Map("id", "Chest", "Items", dynamic.List(item))
	level := dynamic.Map(
		"Entities", dynamic.List(deep, dynamic.Map("id", "zombie", "HandItems", dynamic.List(item))),
		"TileEntities", dynamic.List(chest),
	)

	out, err := f.Update(refLevel, level, 1, 2)
	require.NoError(t, err)

	ents := out.At("Entities").AsList()
	d1 := ents[0]
	d2 := d1.At("Passengers").AsList()[0]
	d3 := d2.At("Passengers").AsList()[0]
	for i, e := range []dynamic.Value{d1, d2, d3} {
		require.False(t, e.Has("player"), "depth %d still has player", i+1)
	}
	require.Equal(t, int64(1), d1.GetInt("pickup", -1))
	require.Equal(t, int64(0), d2.GetInt("pickup", -1))
	require.Equal(t, int64(1), d3.GetInt("pickup", -1))

	held := ents[1].At("HandItems").AsList()[0].At("tag").At("EntityTag")
	require.Equal(t, int64(1), held.GetInt("pickup", -1))

	inChest := out.At("TileEntities").AsList()[0].At("Items").AsList()[0].At("tag").At("EntityTag")
	require.Equal(t, int64(1), inChest.GetInt("pickup", -1))
	require.Equal(t, "Chest", out.At("TileEntities").AsList()[0].GetString("id", ""), "legacy ids are not rewritten")
}

func TestMigrate_UnknownDiscriminatorReturnsOriginal(t *testing.T) {
	f := newFixer(t, arrowPickup(2))
	in := dynamic.Map("Entities", dynamic.List(arrow(true), dynamic.Map("id", "minecraft:bogus")))

	out, err := f.Migrate(refLevel, in)
	require.Error(t, err)
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown), "got %v", err)
	require.True(t, dynamic.Same(in, out))

	var it df.Issue
	require.True(t, errors.As(err, &it))
	require.Equal(t, "/Entities/1/id", it.Path)
	require.Equal(t, "minecraft:bogus", it.Tag)
}

func TestMigrate_MissingDiscriminatorPassesThrough(t *testing.T) {
	f := newFixer(t, arrowPickup(2))
	in := dynamic.Map("Entities", dynamic.List(dynamic.Map("player", true)))

	out, err := f.Update(refLevel, in, 1, 2)
	require.NoError(t, err)
	requireValue(t, in, out)
}

func TestMigrate_Idempotent(t *testing.T) {
	f := newFixer(t, arrowPickup(2), shulkerColor(3))
	in := dynamic.Map("Entities", dynamic.List(arrow(true), dynamic.Map("id", "shulker", "Color", 10)))

	once, err := f.Migrate(refLevel, in)
	require.NoError(t, err)
	twice, err := f.Migrate(refLevel, once)
	require.NoError(t, err)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second migration changed the document (-once +twice):\n%s", diff)
	}
}

func TestMigrate_Stamp(t *testing.T) {
	f := newFixer(t, arrowPickup(2), shulkerColor(3))
	require.Equal(t, 1, f.Baseline())
	require.Equal(t, 3, f.Target())

	out, err := f.Migrate(refEntity, arrow(true))
	require.NoError(t, err)
	require.Equal(t, int64(3), out.GetInt(df.DefaultVersionKey, 0))

	// Already at version 2: the arrow fix must not run again.
	stamped := arrow(true).Set(df.DefaultVersionKey, dynamic.Int(2))
	out, err = f.Migrate(refEntity, stamped)
	require.NoError(t, err)
	require.True(t, out.GetBool("player", false))
	require.Equal(t, int64(3), out.GetInt(df.DefaultVersionKey, 0))
}

func TestMigrate_NewerThanTarget(t *testing.T) {
	f := newFixer(t, arrowPickup(2))
	in := arrow(true).Set(df.DefaultVersionKey, dynamic.Int(50))

	m := f.NewMigration(refEntity, in)
	out, err := m.Run()
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out))
	require.Equal(t, df.StateDone, m.State())
}

func TestMigrate_SameVersionRunsInRegistrationOrder(t *testing.T) {
	first := df.NewFix("First", 2, false).
		Branch(refEntity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Marker", dynamic.Int(1))
		})).MustBuild()
	second := df.NewFix("Second", 2, false).
		Branch(refEntity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Marker", dynamic.Int(v.GetInt("Marker", 0)*10))
		})).MustBuild()

	f := newFixer(t, first, second)
	out, err := f.Update(refEntity, dynamic.Map("id", "zombie"), 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(10), out.GetInt("Marker", 0))

	names := []string{}
	for _, fx := range f.Fixes() {
		names = append(names, fx.Name())
	}
	require.Equal(t, []string{"First", "Second"}, names)
}

func TestMigrate_ShapeChangeSharingVersionStillReachesNested(t *testing.T) {
	v1 := df.NewSchema(1, nil).
		Define(refEntity, df.ChoiceOf("id", df.DefaultNamespace, map[string]df.Type{
			"arrow": df.RecordOf(
				df.Field{Name: "Riding", Type: df.RefTo(refEntity)},
				df.Field{Name: "player", Type: df.BoolType()},
			),
		})).
		Define(refItem, df.RecordOf(df.Field{Name: "id", Type: df.StringType()})).
		MustBuild()
	v2 := df.NewSchema(2, v1).
		Define(refEntity, df.ChoiceOf("id", df.DefaultNamespace, map[string]df.Type{
			"arrow": df.RecordOf(
				df.Field{Name: "Passengers", Type: df.ListOf(df.RefTo(refEntity))},
				df.Field{Name: "pickup", Type: df.NumberType()},
			),
		})).
		MustBuild()

	items := df.NewFix("ItemNoop", 2, false).
		Everywhere(refItem, df.Total(func(v dynamic.Value) dynamic.Value { return v })).
		MustBuild()
	pickup := df.NewFix("ArrowPickup", 2, true).
		Branch(refEntity, "arrow", df.Total(func(v dynamic.Value) dynamic.Value {
			if !v.Has("player") {
				return v
			}
			return v.Remove("player").Set("pickup", dynamic.Int(1))
		})).
		MustBuild()

	in := dynamic.Map("id", "minecraft:arrow", "player", true,
		"Riding", dynamic.Map("id", "minecraft:arrow", "player", true))
	want := dynamic.Map("id", "minecraft:arrow", "pickup", 1,
		"Riding", dynamic.Map("id", "minecraft:arrow", "pickup", 1))

	for _, order := range [][]*df.DataFix{{items, pickup}, {pickup, items}} {
		f, err := df.NewBuilder().AddSchema(v1, v2).AddFix(order...).Build()
		require.NoError(t, err)
		out, err := f.Update(refEntity, in, 1, 2)
		require.NoError(t, err)
		requireValue(t, want, out)
	}
}

func TestMigrate_RerunFromBaselineLeavesMigratedDataAlone(t *testing.T) {
	v1 := baseSchema()
	v2 := df.NewSchema(2, v1).
		RemoveBranches(refEntity, "zombie").
		AddBranches(refEntity, map[string]df.Type{"drowned": entity()}).
		MustBuild()
	rename := df.NewFix("ZombieToDrowned", 2, true).
		Branch(refEntity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("id", dynamic.String("minecraft:drowned"))
		})).
		MustBuild()
	f, err := df.NewBuilder().AddSchema(v1, v2).AddFix(rename, arrowPickup(3)).Build()
	require.NoError(t, err)

	bow := dynamic.Map("id", "bow", "tag", dynamic.Map("EntityTag", arrow(true)))
	in := dynamic.Map(
		"Entities", dynamic.List(dynamic.Map("id", "zombie", "HandItems", dynamic.List(bow))),
		"TileEntities", dynamic.List(dynamic.Map("id", "chest")),
	)
	once, err := f.Migrate(refLevel, in)
	require.NoError(t, err)
	require.Equal(t, "minecraft:drowned", once.At("Entities").AsList()[0].GetString("id", ""))

	again, err := f.Update(refLevel, once, f.Baseline(), f.Target())
	require.NoError(t, err)
	if diff := cmp.Diff(once, again); diff != "" {
		t.Fatalf("re-run from the baseline changed the document (-once +again):\n%s", diff)
	}

	unstamped, err := f.Migrate(refLevel, once.Remove(df.DefaultVersionKey))
	require.NoError(t, err)
	if diff := cmp.Diff(once, unstamped); diff != "" {
		t.Fatalf("re-run without a stamp changed the document (-once +unstamped):\n%s", diff)
	}

	// A tag neither side registers still fails.
	bogus := once.Set("Entities", dynamic.List(dynamic.Map("id", "minecraft:bogus")))
	_, err = f.Update(refLevel, bogus, f.Baseline(), f.Target())
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown), "got %v", err)
}

func TestMigrate_FixErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	fix := df.NewFix("Broken", 2, false).
		Everywhere(refItem, func(v dynamic.Value) (dynamic.Value, error) { return v, boom }).
		MustBuild()
	f := newFixer(t, fix)
	in := dynamic.Map("Entities", dynamic.List(dynamic.Map("id", "zombie", "HandItems", dynamic.List(dynamic.Map("id", "stone")))))

	m := f.NewMigration(refLevel, in)
	out, err := m.Run()
	require.ErrorIs(t, err, boom)
	require.True(t, df.HasCode(err, df.CodeFixFailed))
	require.True(t, dynamic.Same(in, out))
	require.Equal(t, df.StateFailed, m.State())

	var it df.Issue
	require.True(t, errors.As(err, &it))
	require.Equal(t, "/Entities/0/HandItems/0", it.Path)
	require.Equal(t, "Broken", it.Fix)
	require.Equal(t, 2, it.Version)
}

func TestMigrate_WritingUnregisteredTagFails(t *testing.T) {
	fix := df.NewFix("BadRename", 2, false).
		Branch(refEntity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("id", dynamic.String("minecraft:zombie_pigman"))
		})).MustBuild()
	f := newFixer(t, fix)

	_, err := f.Update(refEntity, dynamic.Map("id", "zombie"), 1, 2)
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown), "got %v", err)
}

func TestMigrate_RoundTripFailure(t *testing.T) {
	fix := df.NewFix("CountAsText", 2, false).
		RoundTrip(refItem, df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Count", dynamic.String("many"))
		})).MustBuild()
	f := newFixer(t, fix)

	_, err := f.Update(refItem, dynamic.Map("id", "stone", "Count", 1), 1, 2)
	require.True(t, df.HasCode(err, df.CodeRoundTripFailure), "got %v", err)
}

func TestMigrate_RoundTripRelaxesAcrossRefs(t *testing.T) {
	fix := df.NewFix("Noop", 2, false).
		RoundTrip(refItem, df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Count", dynamic.Int(v.GetInt("Count", 1)))
		})).MustBuild()
	f := newFixer(t, fix)

	// The nested entity carries a string where a bool is declared. Only the
	// item itself is read strictly.
	in := dynamic.Map("id", "bow", "Count", 1, "tag", dynamic.Map("EntityTag", dynamic.Map("id", "arrow", "player", "yes")))
	_, err := f.Update(refItem, in, 1, 2)
	require.NoError(t, err)
}

func TestMigrate_ValueFixShapeViolation(t *testing.T) {
	fix := df.NewFix("ListToString", 2, false).
		Branch(refEntity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Passengers", dynamic.String("none"))
		})).MustBuild()
	f := newFixer(t, fix)

	_, err := f.Update(refEntity, dynamic.Map("id", "zombie"), 1, 2)
	require.True(t, df.HasCode(err, df.CodeShapeViolation), "got %v", err)
}

func TestMigrate_ValueFixScalarViolation(t *testing.T) {
	fix := df.NewFix("ColorAsText", 2, false).
		Branch(refEntity, "shulker", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("Color", dynamic.String("red"))
		})).MustBuild()
	f := newFixer(t, fix)

	_, err := f.Update(refEntity, dynamic.Map("id", "shulker", "Color", 10), 1, 2)
	require.True(t, df.HasCode(err, df.CodeShapeViolation), "got %v", err)

	var it df.Issue
	require.True(t, errors.As(err, &it))
	require.Equal(t, "/Color", it.Path)
}

func TestMigrate_ValueFixToleratesUntouchedScalars(t *testing.T) {
	f := newFixer(t, shulkerColor(2))

	// Color is left alone, and Count sits below a reference.
	in := dynamic.Map("id", "minecraft:shulker", "Color", "ten", "HandItems", dynamic.List(dynamic.Map("id", "stone", "Count", "lots")))
	out, err := f.Update(refEntity, in, 1, 2)
	require.NoError(t, err)
	requireValue(t, in, out)

	in = in.Set("Color", dynamic.Int(10))
	out, err = f.Update(refEntity, in, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(16), out.GetInt("Color", 0))
}

func TestMigrate_Observer(t *testing.T) {
	var events []df.Event
	f, err := df.NewBuilder(df.WithObserver(func(ev df.Event) { events = append(events, ev) })).
		AddSchema(baseSchema()).
		AddFix(arrowPickup(2), shulkerColor(3)).
		Build()
	require.NoError(t, err)

	_, err = f.Migrate(refEntity, arrow(true))
	require.NoError(t, err)

	var got []string
	for _, ev := range events {
		got = append(got, ev.State.String()+":"+ev.Fix)
	}
	require.Equal(t, []string{"applying:", "applying:ArrowPickupFix", "applying:ShulkerColorFix", "done:"}, got)
	require.Equal(t, 3, events[len(events)-1].Version)
}

func TestMigration_RunTwiceReturnsRecordedOutcome(t *testing.T) {
	f := newFixer(t, arrowPickup(2))
	m := f.NewMigration(refEntity, arrow(true))
	first, err := m.Run()
	require.NoError(t, err)
	second, err := m.Run()
	require.NoError(t, err)
	require.True(t, dynamic.Same(first, second))
	require.Equal(t, 2, m.Version())
	require.Equal(t, 1, m.From())
	require.Equal(t, 2, m.To())
}

func TestBuild_UnknownReference(t *testing.T) {
	fix := df.NewFix("Ghost", 2, false).
		Everywhere("GHOST", df.Total(func(v dynamic.Value) dynamic.Value { return v })).
		MustBuild()
	_, err := df.NewBuilder().AddSchema(baseSchema()).AddFix(fix).Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch), "got %v", err)
}

func TestBuild_UnknownBranch(t *testing.T) {
	fix := df.NewFix("Pig", 2, false).
		Branch(refEntity, "pig", df.Total(func(v dynamic.Value) dynamic.Value { return v })).
		MustBuild()
	_, err := df.NewBuilder().AddSchema(baseSchema()).AddFix(fix).Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch), "got %v", err)

	fix = df.NewFix("NotAChoice", 2, false).
		Branch(refItem, "stone", df.Total(func(v dynamic.Value) dynamic.Value { return v })).
		MustBuild()
	_, err = df.NewBuilder().AddSchema(baseSchema()).AddFix(fix).Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch), "got %v", err)
}

func TestBuild_UndeclaredShapeChange(t *testing.T) {
	v1 := baseSchema()
	v2 := df.NewSchema(2, v1).
		Define(refItem, df.RecordOf(df.Field{Name: "id", Type: df.StringType()})).
		MustBuild()
	noop := df.Total(func(v dynamic.Value) dynamic.Value { return v })

	_, err := df.NewBuilder().AddSchema(v1, v2).
		AddFix(df.NewFix("Quiet", 2, false).Everywhere(refItem, noop).MustBuild()).
		Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch), "got %v", err)

	_, err = df.NewBuilder().AddSchema(v1, v2).
		AddFix(df.NewFix("Loud", 2, true).Everywhere(refItem, noop).MustBuild()).
		Build()
	require.NoError(t, err)
}

func TestBuild_RegistryDefects(t *testing.T) {
	noop := df.Total(func(v dynamic.Value) dynamic.Value { return v })
	a := df.NewFix("Same", 2, false).Everywhere(refItem, noop).MustBuild()
	b := df.NewFix("Same", 3, false).Everywhere(refItem, noop).MustBuild()

	_, err := df.NewBuilder().AddSchema(baseSchema()).AddFix(a, b).Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch))

	_, err = df.NewBuilder().AddSchema(baseSchema(), baseSchema()).Build()
	require.True(t, df.HasCode(err, df.CodeInvalidVersion))

	_, err = df.NewBuilder().Build()
	require.Error(t, err)

	_, err = df.NewBuilder(df.WithBaselineVersion(5), df.WithTargetVersion(3)).AddSchema(baseSchema()).Build()
	require.True(t, df.HasCode(err, df.CodeInvalidVersion))
}

func TestBuild_SkipsNilRegistrations(t *testing.T) {
	f, err := df.NewBuilder().AddSchema(nil, baseSchema()).AddFix(nil, arrowPickup(2)).Build()
	require.NoError(t, err)
	require.Equal(t, 1, f.Baseline())
	require.Equal(t, 2, f.Target())

	_, err = df.NewBuilder().AddSchema(nil).Build()
	require.True(t, df.HasCode(err, df.CodeSchemaMismatch), "got %v", err)
}

func TestFixBuilder_Defects(t *testing.T) {
	_, err := df.NewFix("Empty", 2, false).Build()
	require.Error(t, err)

	_, err = df.NewFix("Zero", 0, false).Everywhere(refItem, df.Total(func(v dynamic.Value) dynamic.Value { return v })).Build()
	require.True(t, df.HasCode(err, df.CodeInvalidVersion))

	_, err = df.NewFix("NilFn", 2, false).Everywhere(refItem, nil).Build()
	require.Error(t, err)
}

func TestTargetVersionLimitsChain(t *testing.T) {
	f, err := df.NewBuilder(df.WithTargetVersion(2)).
		AddSchema(baseSchema()).
		AddFix(arrowPickup(2), shulkerColor(3)).
		Build()
	require.NoError(t, err)

	out, err := f.Migrate(refEntity, dynamic.Map("id", "shulker", "Color", 10))
	require.NoError(t, err)
	require.Equal(t, int64(10), out.GetInt("Color", 0))
	require.Equal(t, int64(2), out.GetInt(df.DefaultVersionKey, 0))
}

func TestStampOf(t *testing.T) {
	f, err := df.NewBuilder(df.WithVersionKey("v")).AddSchema(baseSchema()).AddFix(arrowPickup(2)).Build()
	require.NoError(t, err)
	require.Equal(t, 1, f.StampOf(dynamic.Map()))
	require.Equal(t, 2, f.StampOf(dynamic.Map("v", 2)))
	require.Equal(t, 1, f.StampOf(dynamic.Map("v", -4)))
	require.Equal(t, 1, f.StampOf(dynamic.Map("v", "garbage")))
}
