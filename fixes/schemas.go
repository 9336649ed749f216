package fixes

import (
	"sort"
	"sync"

	df "github.com/reoring/datafixer"
	g "github.com/reoring/datafixer/dsl"
)

// Schemas returns the catalog schemas, oldest first. Each version only
// declares what changed.
func Schemas() []*df.Schema {
	s := schemas()
	return []*df.Schema{s.v99, s.v135, s.v502, s.v704, s.v2509}
}

// SchemaAt returns the catalog schema in effect at version, or nil below
// the baseline.
func SchemaAt(version int) *df.Schema {
	var found *df.Schema
	for _, s := range Schemas() {
		if s.Version() <= version {
			found = s
		}
	}
	return found
}

type catalog struct {
	v99, v135, v502, v704, v2509 *df.Schema
}

var schemas = sync.OnceValue(func() catalog {
	var c catalog
	c.v99 = df.NewSchema(99, nil).
		Define(ItemStack, itemStack()).
		Define(Entity, entityChoice(envelope99(), entityBranches())).
		Define(BlockEntity, blockEntityChoice(legacyBlockEntities())).
		Define(Chunk, chunk()).
		Define(Player, player99()).
		MustBuild()

	// Vehicles own their passengers instead of riders pointing at vehicles.
	c.v135 = df.NewSchema(135, c.v99).
		Define(Entity, entityChoice(envelope135(), entityBranches())).
		Define(Player, g.Extend(player99()).
			Drop("Riding").
			Field("RootVehicle", g.Record().Field("Entity", g.Ref(Entity)).Field("Attach", g.Any()).MustBuild()).
			MustBuild()).
		MustBuild()

	c.v502 = df.NewSchema(502, c.v135).
		AddBranches(Entity, map[string]df.Type{
			"zombie": g.Extend(envelope135()).Field("IsBaby", g.Bool()).MustBuild(),
			"zombie_villager": g.Extend(envelope135()).
				Field("Profession", g.Number()).
				Field("IsBaby", g.Bool()).
				Field("ConversionTime", g.Number()).
				MustBuild(),
		}).
		MustBuild()

	c.v704 = df.NewSchema(704, c.v502).
		Define(BlockEntity, blockEntityChoice(modernBlockEntities())).
		MustBuild()

	c.v2509 = df.NewSchema(2509, c.v704).
		RemoveBranches(Entity, "zombie_pigman").
		AddBranches(Entity, map[string]df.Type{
			"zombified_piglin": g.Extend(envelope135()).Field("Anger", g.Number()).Field("HurtBy", g.String()).MustBuild(),
		}).
		MustBuild()
	return c
})

func player99() *df.RecordType {
	return g.Record().
		Field("Inventory", g.ListOfRef(ItemStack)).
		Field("EnderItems", g.ListOfRef(ItemStack)).
		Field("Riding", g.Ref(Entity)).
		Field("HealF", g.Number()).
		Field("Health", g.Number()).
		Field("SelectedItemSlot", g.Number()).
		MustBuild()
}

func itemStack() *df.RecordType {
	return g.Record().
		Field("id", g.String()).
		Field("Count", g.Number()).
		Field("Damage", g.Number()).
		Field("tag", g.Record().
			Field("EntityTag", g.Ref(Entity)).
			Field("BlockEntityTag", g.Ref(BlockEntity)).
			Field("display", g.Record().
				Field("Name", g.String()).
				Field("Lore", g.List(g.String())).
				MustBuild()).
			MustBuild()).
		MustBuild()
}

func chunk() *df.RecordType {
	return g.Record().
		Field("Level", g.Record().
			Field("xPos", g.Number()).
			Field("zPos", g.Number()).
			Field("Entities", g.ListOfRef(Entity)).
			Field("TileEntities", g.ListOfRef(BlockEntity)).
			MustBuild()).
		MustBuild()
}

func envelope() *df.RecordType {
	return g.Record().
		Field("Pos", g.List(g.Number())).
		Field("Motion", g.List(g.Number())).
		Field("Rotation", g.List(g.Number())).
		Field("UUIDMost", g.Number()).
		Field("UUIDLeast", g.Number()).
		Field("HealF", g.Number()).
		Field("Health", g.Number()).
		Field("CustomName", g.String()).
		Field("HandItems", g.ListOfRef(ItemStack)).
		Field("ArmorItems", g.ListOfRef(ItemStack)).
		MustBuild()
}

func envelope99() *df.RecordType {
	return g.Extend(envelope()).Field("Riding", g.Ref(Entity)).MustBuild()
}

func envelope135() *df.RecordType {
	return g.Extend(envelope()).Field("Passengers", g.ListOfRef(Entity)).MustBuild()
}

func projectile() []df.Field {
	return []df.Field{
		{Name: "inGround", Type: g.Number()},
		{Name: "player", Type: g.Bool()},
		{Name: "pickup", Type: g.Number()},
	}
}

// entityBranches lists the fields specific to each entity kind.
func entityBranches() map[string][]df.Field {
	offers := g.Record().
		Field("Recipes", g.List(g.Record().
			Field("buy", g.Ref(ItemStack)).
			Field("buyB", g.Ref(ItemStack)).
			Field("sell", g.Ref(ItemStack)).
			MustBuild())).
		MustBuild()
	return map[string][]df.Field{
		"arrow":          projectile(),
		"spectral_arrow": projectile(),
		"trident":        projectile(),
		"item":           {{Name: "Item", Type: g.Ref(ItemStack)}, {Name: "Age", Type: g.Number()}},
		"pig":            {{Name: "Saddle", Type: g.Bool()}},
		"shulker":        {{Name: "Color", Type: g.Number()}, {Name: "Peek", Type: g.Number()}},
		"villager":       {{Name: "Profession", Type: g.Number()}, {Name: "Offers", Type: offers}},
		"zombie":         {{Name: "IsVillager", Type: g.Bool()}, {Name: "VillagerProfession", Type: g.Number()}, {Name: "IsBaby", Type: g.Bool()}},
		"zombie_pigman":  {{Name: "Anger", Type: g.Number()}, {Name: "HurtBy", Type: g.String()}},
		"skeleton":       {{Name: "SkeletonType", Type: g.Number()}},
		"creeper":        {{Name: "powered", Type: g.Bool()}, {Name: "Fuse", Type: g.Number()}},
		"chest_minecart": {{Name: "Items", Type: g.ListOfRef(ItemStack)}},
		"armor_stand":    {{Name: "Invisible", Type: g.Bool()}},
	}
}

func entityChoice(env *df.RecordType, branches map[string][]df.Field) *df.ChoiceType {
	c := g.Choice("id").Namespace(df.DefaultNamespace)
	for _, tag := range sortedKeys(branches) {
		c.Variant(tag, env.With(branches[tag]...))
	}
	return c.MustBuild()
}

// blockEntityShapes describes each block entity kind by its modern name.
func blockEntityShapes() map[string]df.Type {
	container := g.Record().Field("Items", g.ListOfRef(ItemStack)).MustBuild()
	empty := g.Record().MustBuild()
	spawner := g.Record().
		Field("SpawnData", g.Ref(Entity)).
		Field("SpawnPotentials", g.List(g.Record().Field("Entity", g.Ref(Entity)).Field("Weight", g.Number()).MustBuild())).
		MustBuild()
	sign := g.Record().
		Field("Text1", g.String()).
		Field("Text2", g.String()).
		Field("Text3", g.String()).
		Field("Text4", g.String()).
		MustBuild()
	return map[string]df.Type{
		"banner":            g.Record().Field("Base", g.Number()).MustBuild(),
		"beacon":            g.Record().Field("Levels", g.Number()).MustBuild(),
		"brewing_stand":     container,
		"chest":             container,
		"command_block":     g.Record().Field("Command", g.String()).MustBuild(),
		"comparator":        g.Record().Field("OutputSignal", g.Number()).MustBuild(),
		"daylight_detector": empty,
		"dispenser":         container,
		"dropper":           container,
		"enchanting_table":  empty,
		"end_gateway":       g.Record().Field("Age", g.Number()).MustBuild(),
		"end_portal":        empty,
		"ender_chest":       empty,
		"flower_pot":        g.Record().Field("Item", g.Any()).MustBuild(),
		"furnace":           g.Extend(container).Field("BurnTime", g.Number()).Field("CookTime", g.Number()).MustBuild(),
		"hopper":            container,
		"jukebox":           g.Record().Field("RecordItem", g.Ref(ItemStack)).MustBuild(),
		"mob_spawner":       spawner,
		"noteblock":         g.Record().Field("note", g.Number()).MustBuild(),
		"piston":            g.Record().Field("blockId", g.Number()).MustBuild(),
		"sign":              sign,
		"skull":             g.Record().Field("SkullType", g.Number()).MustBuild(),
		"structure_block":   g.Record().Field("name", g.String()).MustBuild(),
	}
}

// legacyBlockEntityIDs maps the identifiers used before version 704 to
// their namespaced replacements.
var legacyBlockEntityIDs = map[string]string{
	"Airportal":    "minecraft:end_portal",
	"Banner":       "minecraft:banner",
	"Beacon":       "minecraft:beacon",
	"Cauldron":     "minecraft:brewing_stand",
	"Chest":        "minecraft:chest",
	"Comparator":   "minecraft:comparator",
	"Control":      "minecraft:command_block",
	"DLDetector":   "minecraft:daylight_detector",
	"Dropper":      "minecraft:dropper",
	"EnchantTable": "minecraft:enchanting_table",
	"EndGateway":   "minecraft:end_gateway",
	"EnderChest":   "minecraft:ender_chest",
	"FlowerPot":    "minecraft:flower_pot",
	"Furnace":      "minecraft:furnace",
	"Hopper":       "minecraft:hopper",
	"MobSpawner":   "minecraft:mob_spawner",
	"Music":        "minecraft:noteblock",
	"Piston":       "minecraft:piston",
	"RecordPlayer": "minecraft:jukebox",
	"Sign":         "minecraft:sign",
	"Skull":        "minecraft:skull",
	"Structure":    "minecraft:structure_block",
	"Trap":         "minecraft:dispenser",
}

func legacyBlockEntities() map[string]df.Type {
	shapes := blockEntityShapes()
	out := make(map[string]df.Type, len(legacyBlockEntityIDs))
	for legacy, modern := range legacyBlockEntityIDs {
		_, path := df.SplitID(modern)
		out[legacy] = shapes[path]
	}
	return out
}

// modernBlockEntities adds the shulker box, introduced together with the
// namespaced identifiers.
func modernBlockEntities() map[string]df.Type {
	out := blockEntityShapes()
	out["shulker_box"] = g.Record().Field("Items", g.ListOfRef(ItemStack)).MustBuild()
	return out
}

func blockEntityChoice(branches map[string]df.Type) *df.ChoiceType {
	c := g.Choice("id").Namespace(df.DefaultNamespace)
	for _, tag := range sortedKeys(branches) {
		c.Variant(tag, branches[tag])
	}
	return c.MustBuild()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
