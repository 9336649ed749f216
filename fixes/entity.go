package fixes

import (
	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
)

// entityHealth folds the legacy float health field into Health.
func entityHealth() *df.DataFix {
	health := df.Total(func(v dynamic.Value) dynamic.Value {
		if f, ok := v.Get("HealF"); ok {
			return v.Remove("HealF").Set("Health", dynamic.Float(f.AsFloat(0)))
		}
		if h, ok := v.Get("Health"); ok && !h.IsFloat() {
			return v.Set("Health", dynamic.Float(h.AsFloat(0)))
		}
		return v
	})
	return df.NewFix("EntityHealthFix", 109, false).
		Everywhere(Entity, health).
		Root(Player, health).
		MustBuild()
}

// flipRiding turns a rider pointing at its vehicle chain into the topmost
// vehicle listing its passengers.
func flipRiding(v dynamic.Value) dynamic.Value {
	riding, ok := v.Get("Riding")
	if !ok {
		return v
	}
	out := v.Remove("Riding")
	for riding.IsMap() {
		next := riding.At("Riding")
		out = riding.Remove("Riding").Set("Passengers", dynamic.List(out))
		riding = next
	}
	return out
}

func ridingToPassengers() *df.DataFix {
	player := df.Total(func(v dynamic.Value) dynamic.Value {
		vehicle, ok := v.Get("Riding")
		if !ok {
			return v
		}
		out := v.Remove("Riding")
		if !vehicle.IsMap() {
			return out
		}
		root := dynamic.Map("Entity", flipRiding(vehicle))
		if vehicle.Has("UUIDMost") {
			root = root.Set("Attach", dynamic.Map(
				"UUIDMost", vehicle.At("UUIDMost"),
				"UUIDLeast", vehicle.At("UUIDLeast"),
			))
		}
		return out.Set("RootVehicle", root)
	})
	return df.NewFix("EntityRidingToPassengersFix", 135, true).
		Add(df.Rule{Ref: Entity, Scope: df.ScopeRoot, Mode: df.ModeRoundTrip, Apply: df.Total(flipRiding)}).
		Add(df.Rule{
			Ref:   Chunk,
			Scope: df.ScopeRoot,
			Mode:  df.ModeRoundTrip,
			Optic: ".Level.Entities[*]",
			Apply: df.Focus(df.Compose(df.PathLens("Level", "Entities"), df.Each()), df.Total(flipRiding)),
		}).
		Add(df.Rule{Ref: Player, Scope: df.ScopeRoot, Mode: df.ModeRoundTrip, Apply: player}).
		MustBuild()
}

// professions is the number of villager professions known before 502.
const professions = 6

// zombieVillagerSplit moves villager zombies to their own entity kind. The
// stored profession is kept when valid; otherwise one is derived from the
// entity UUID so that repeated runs agree.
func zombieVillagerSplit() *df.DataFix {
	return df.NewFix("EntityZombieVillagerSplitFix", 502, true).
		Branch(Entity, "zombie", df.Total(func(v dynamic.Value) dynamic.Value {
			if !v.Has("IsVillager") && !v.Has("VillagerProfession") {
				return v
			}
			villager := v.GetBool("IsVillager", false)
			profession := v.GetInt("VillagerProfession", -1)
			out := v.Remove("IsVillager").Remove("VillagerProfession")
			if !villager {
				return out
			}
			if profession < 0 || profession >= professions {
				profession = professionOf(v)
			}
			return out.
				Set("id", dynamic.String("minecraft:zombie_villager")).
				Set("Profession", dynamic.Int(profession))
		})).
		MustBuild()
}

func professionOf(v dynamic.Value) int64 {
	if !v.Has("UUIDMost") && !v.Has("UUIDLeast") {
		return 0
	}
	bits := uint64(v.GetInt("UUIDMost", 0)) ^ uint64(v.GetInt("UUIDLeast", 0))
	return int64(bits % professions)
}

// shulkerColor moves shulkers off the legacy default color index.
func shulkerColor() *df.DataFix {
	choice, _ := schemas().v704.Choice(Entity)
	return df.NewFix("EntityShulkerColorFix", 808, false).
		Field(Entity, df.Compose(df.BranchPrism(choice, "shulker"), df.FieldLens("Color")),
			df.Total(func(c dynamic.Value) dynamic.Value {
				if c.AsInt(-1) == 10 {
					return dynamic.Int(16)
				}
				return c
			})).
		MustBuild()
}

// arrowPickup replaces the player flag of projectiles with a pickup mode.
// Projectiles without the flag were fired by players.
func arrowPickup() *df.DataFix {
	fn := df.Total(func(v dynamic.Value) dynamic.Value {
		if v.Has("pickup") {
			return v
		}
		pickup := int64(0)
		if v.GetBool("player", true) {
			pickup = 1
		}
		return v.Remove("player").Set("pickup", dynamic.Int(pickup))
	})
	return df.NewFix("EntityArrowPickupFix", 1125, false).
		Branch(Entity, "arrow", fn).
		Branch(Entity, "spectral_arrow", fn).
		MustBuild()
}

// zombifiedPiglin renames the zombie pigman together with its spawn egg.
// Rules walk the input schema, so the entity rename comes last.
func zombifiedPiglin() *df.DataFix {
	return df.NewFix("EntityZombifiedPiglinRenameFix", 2509, true).
		Everywhere(ItemStack, df.Total(func(v dynamic.Value) dynamic.Value {
			if df.NormalizeID(df.DefaultNamespace, v.GetString("id", "")) != "minecraft:zombie_pigman_spawn_egg" {
				return v
			}
			return v.Set("id", dynamic.String("minecraft:zombified_piglin_spawn_egg"))
		})).
		Branch(Entity, "zombie_pigman", df.Total(func(v dynamic.Value) dynamic.Value {
			return v.Set("id", dynamic.String("minecraft:zombified_piglin"))
		})).
		MustBuild()
}
