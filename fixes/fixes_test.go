package fixes_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
	"github.com/reoring/datafixer/fixes"
	"github.com/reoring/datafixer/source"
)

func newFixer(t *testing.T, opts ...df.Option) *df.Fixer {
	t.Helper()
	f, err := fixes.New(opts...)
	require.NoError(t, err)
	return f
}

func doc(t *testing.T, text string) dynamic.Value {
	t.Helper()
	v, err := source.JSON([]byte(text))
	require.NoError(t, err)
	return v
}

func requireDoc(t *testing.T, want string, got dynamic.Value) {
	t.Helper()
	w := doc(t, want)
	if !dynamic.Equal(w, got) {
		t.Fatalf("document mismatch (-want +got):\n%s", cmp.Diff(w.Any(), got.Any()))
	}
}

func TestCatalog_Builds(t *testing.T) {
	f := newFixer(t)
	require.Equal(t, fixes.BaselineVersion, f.Baseline())
	require.Equal(t, 2509, f.Target())
	require.Len(t, f.Schemas(), 5)

	var names []string
	for _, fix := range f.Fixes() {
		names = append(names, fix.String())
	}
	require.Equal(t, []string{
		"EntityHealthFix@109",
		"EntityRidingToPassengersFix@135",
		"EntityZombieVillagerSplitFix@502",
		"BlockEntityIdFix@704",
		"EntityShulkerColorFix@808",
		"EntityArrowPickupFix@1125",
		"EntityZombifiedPiglinRenameFix@2509",
	}, names)
}

func TestSchemaAt(t *testing.T) {
	require.Nil(t, fixes.SchemaAt(98))
	require.Equal(t, 99, fixes.SchemaAt(134).Version())
	require.Equal(t, 704, fixes.SchemaAt(2508).Version())
	require.Equal(t, 2509, fixes.SchemaAt(5000).Version())
}

func TestArrowPickup(t *testing.T) {
	f := newFixer(t)

	out, err := f.Update(fixes.Entity, doc(t, `{"id":"minecraft:arrow","player":true}`), 1124, 1125)
	require.NoError(t, err)
	requireDoc(t, `{"id":"minecraft:arrow","pickup":1}`, out)

	out, err = f.Update(fixes.Entity, doc(t, `{"id":"minecraft:spectral_arrow","player":false}`), 1124, 1125)
	require.NoError(t, err)
	requireDoc(t, `{"id":"minecraft:spectral_arrow","pickup":0}`, out)

	in := doc(t, `{"id":"minecraft:arrow","pickup":0}`)
	out, err = f.Update(fixes.Entity, in, 1124, 1125)
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out))
}

func TestArrowPickup_LeavesTridentAlone(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"id":"minecraft:trident","player":true,"Pos":[1.5,64,2.5]}`)

	out, err := f.Update(fixes.Entity, in, 1124, 1125)
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out))

	a, err := source.MarshalJSON(in)
	require.NoError(t, err)
	b, err := source.MarshalJSON(out)
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestShulkerColor(t *testing.T) {
	f := newFixer(t)

	out, err := f.Update(fixes.Entity, doc(t, `{"id":"minecraft:shulker","Color":10}`), 807, 808)
	require.NoError(t, err)
	require.Equal(t, int64(16), out.GetInt("Color", 0))

	in := doc(t, `{"id":"minecraft:shulker","Color":5}`)
	out, err = f.Update(fixes.Entity, in, 807, 808)
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out))

	// Another entity with a Color field is not a shulker.
	in = doc(t, `{"id":"minecraft:pig","Color":10}`)
	out, err = f.Update(fixes.Entity, in, 807, 808)
	require.NoError(t, err)
	require.Equal(t, int64(10), out.GetInt("Color", 0))
}

func TestUnknownEntityFailsWithOriginal(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"DataVersion":1000,"Level":{"Entities":[{"id":"minecraft:arrow","player":true},{"id":"minecraft:totally_unknown"}]}}`)

	out, err := f.Migrate(fixes.Chunk, in)
	require.Error(t, err)
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown))
	require.True(t, dynamic.Same(in, out))

	issues, ok := df.AsIssues(err)
	require.True(t, ok)
	require.Len(t, issues, 1)
	require.Equal(t, "/Level/Entities/1/id", issues[0].Path)
	require.Equal(t, "minecraft:totally_unknown", issues[0].Tag)
}

func TestEntityHealth(t *testing.T) {
	f := newFixer(t)

	out, err := f.Update(fixes.Entity, doc(t, `{"id":"pig","HealF":7.5}`), 99, 109)
	require.NoError(t, err)
	require.False(t, out.Has("HealF"))
	require.InDelta(t, 7.5, out.GetFloat("Health", 0), 1e-9)

	out, err = f.Update(fixes.Player, doc(t, `{"Health":20}`), 99, 109)
	require.NoError(t, err)
	require.True(t, out.At("Health").IsFloat())
}

func TestRidingToPassengers(t *testing.T) {
	f := newFixer(t)
	rider := doc(t, `{
		"id": "zombie",
		"UUIDMost": 1, "UUIDLeast": 2,
		"Riding": {
			"id": "pig",
			"Riding": {"id": "minecraft:chest_minecart", "Items": []}
		}
	}`)

	out, err := f.Update(fixes.Entity, rider, 134, 135)
	require.NoError(t, err)
	requireDoc(t, `{
		"id": "minecraft:chest_minecart", "Items": [],
		"Passengers": [{
			"id": "pig",
			"Passengers": [{"id": "zombie", "UUIDMost": 1, "UUIDLeast": 2}]
		}]
	}`, out)
}

func TestRidingToPassengers_ChunkAndPlayer(t *testing.T) {
	f := newFixer(t)

	chunk := doc(t, `{"Level":{"xPos":0,"zPos":0,"Entities":[
		{"id":"skeleton","Riding":{"id":"pig"}},
		{"id":"creeper"}
	]}}`)
	out, err := f.Update(fixes.Chunk, chunk, 134, 135)
	require.NoError(t, err)
	requireDoc(t, `{"Level":{"xPos":0,"zPos":0,"Entities":[
		{"id":"pig","Passengers":[{"id":"skeleton"}]},
		{"id":"creeper"}
	]}}`, out)

	player := doc(t, `{"Health":20.0,"Riding":{"id":"pig","UUIDMost":5,"UUIDLeast":6}}`)
	out, err = f.Update(fixes.Player, player, 134, 135)
	require.NoError(t, err)
	requireDoc(t, `{"Health":20.0,"RootVehicle":{
		"Entity":{"id":"pig","UUIDMost":5,"UUIDLeast":6},
		"Attach":{"UUIDMost":5,"UUIDLeast":6}
	}}`, out)
}

func TestRidingToPassengers_RejectsBadScalars(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"id":"zombie","Riding":{"id":"pig","Health":"full"}}`)

	out, err := f.Update(fixes.Entity, in, 134, 135)
	require.True(t, df.HasCode(err, df.CodeRoundTripFailure), "got %v", err)
	require.True(t, dynamic.Same(in, out))
}

func TestZombieVillagerSplit(t *testing.T) {
	f := newFixer(t)

	out, err := f.Update(fixes.Entity, doc(t, `{"id":"zombie","IsVillager":true,"VillagerProfession":3}`), 501, 502)
	require.NoError(t, err)
	requireDoc(t, `{"id":"minecraft:zombie_villager","Profession":3}`, out)

	out, err = f.Update(fixes.Entity, doc(t, `{"id":"zombie","IsVillager":false,"IsBaby":true}`), 501, 502)
	require.NoError(t, err)
	requireDoc(t, `{"id":"minecraft:zombie","IsBaby":true}`, out)

	// Out of range professions are derived from the UUID: 7 ^ 4 = 3.
	in := doc(t, `{"id":"zombie","IsVillager":1,"VillagerProfession":9,"UUIDMost":7,"UUIDLeast":4}`)
	first, err := f.Update(fixes.Entity, in, 501, 502)
	require.NoError(t, err)
	second, err := f.Update(fixes.Entity, in, 501, 502)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.GetInt("Profession", -1))
	require.True(t, dynamic.Equal(first, second))
}

func TestBlockEntityIDs(t *testing.T) {
	f := newFixer(t)
	chunk := doc(t, `{"Level":{"TileEntities":[
		{"id":"Chest","Items":[{"id":"minecraft:chest","Count":1,"tag":{"BlockEntityTag":{"id":"Trap","Items":[]}}}]},
		{"id":"MobSpawner","SpawnData":{"id":"minecraft:pig"}},
		{"id":"RecordPlayer"}
	]}}`)

	out, err := f.Update(fixes.Chunk, chunk, 703, 704)
	require.NoError(t, err)
	requireDoc(t, `{"Level":{"TileEntities":[
		{"id":"minecraft:chest","Items":[{"id":"minecraft:chest","Count":1,"tag":{"BlockEntityTag":{"id":"minecraft:dispenser","Items":[]}}}]},
		{"id":"minecraft:mob_spawner","SpawnData":{"id":"minecraft:pig"}},
		{"id":"minecraft:jukebox"}
	]}}`, out)
}

func TestBlockEntityIDs_MigratedIDsPassThrough(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"id":"minecraft:shulker_box","Items":[]}`)

	out, err := f.Update(fixes.BlockEntity, in, 703, 704)
	require.NoError(t, err)
	require.True(t, dynamic.Same(in, out))

	_, err = f.Update(fixes.BlockEntity, doc(t, `{"id":"minecraft:not_a_block"}`), 703, 704)
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown), "got %v", err)
}

func TestZombifiedPiglin(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"id":"zombie_pigman","Anger":20,"HandItems":[
		{"id":"zombie_pigman_spawn_egg","Count":1},
		{"id":"minecraft:golden_sword","Count":1}
	]}`)

	out, err := f.Update(fixes.Entity, in, 2508, 2509)
	require.NoError(t, err)
	requireDoc(t, `{"id":"minecraft:zombified_piglin","Anger":20,"HandItems":[
		{"id":"minecraft:zombified_piglin_spawn_egg","Count":1},
		{"id":"minecraft:golden_sword","Count":1}
	]}`, out)
}

func TestFullChain(t *testing.T) {
	f := newFixer(t)
	in := doc(t, `{"Level":{"xPos":1,"zPos":2,
		"Entities":[
			{"id":"Arrow","player":true},
			{"id":"arrow","player":true,"HealF":4,"Riding":{"id":"zombie_pigman","HandItems":[{"id":"zombie_pigman_spawn_egg","Count":1}]}},
			{"id":"shulker","Color":10}
		],
		"TileEntities":[{"id":"Chest","Items":[]}]
	}}`)

	_, err := f.Migrate(fixes.Chunk, in)
	// "Arrow" is not a registered entity at 99.
	require.True(t, df.HasCode(err, df.CodeDiscriminatorUnknown))

	in = in.Set("Level", in.At("Level").Set("Entities", dynamic.List(in.At("Level").At("Entities").AsList()[1:]...)))
	out, err := f.Migrate(fixes.Chunk, in)
	require.NoError(t, err)
	requireDoc(t, `{"Level":{"xPos":1,"zPos":2,
		"Entities":[
			{"id":"minecraft:zombified_piglin","HandItems":[{"id":"minecraft:zombified_piglin_spawn_egg","Count":1}],
			 "Passengers":[{"id":"minecraft:arrow","pickup":1,"Health":4.0}]},
			{"id":"shulker","Color":16}
		],
		"TileEntities":[{"id":"minecraft:chest","Items":[]}]
	},"DataVersion":2509}`, out)
	require.Equal(t, 2509, f.StampOf(out))

	again, err := f.Migrate(fixes.Chunk, out)
	require.NoError(t, err)
	require.True(t, dynamic.Equal(out, again))

	// Every fix runs again over data that is already current.
	again, err = f.Update(fixes.Chunk, out, f.Baseline(), f.Target())
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(out, again))

	again, err = f.Migrate(fixes.Chunk, out.Remove("DataVersion"))
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(out, again))
}
