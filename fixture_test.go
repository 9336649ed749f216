package datafixer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	df "github.com/reoring/datafixer"
	"github.com/reoring/datafixer/dynamic"
)

const (
	refLevel       df.TypeRef = "LEVEL"
	refEntity      df.TypeRef = "ENTITY"
	refItem        df.TypeRef = "ITEM_STACK"
	refBlockEntity df.TypeRef = "BLOCK_ENTITY"
)

// entity builds a branch record carrying the envelope every entity shares.
func entity(fields ...df.Field) *df.RecordType {
	return df.RecordOf(append([]df.Field{
		{Name: "Passengers", Type: df.ListOf(df.RefTo(refEntity))},
		{Name: "HandItems", Type: df.ListOf(df.RefTo(refItem))},
	}, fields...)...)
}

func projectile() *df.RecordType {
	return entity(
		df.Field{Name: "player", Type: df.BoolType()},
		df.Field{Name: "pickup", Type: df.NumberType()},
	)
}

// baseSchema is a small world: levels hold entities and block entities,
// entities ride each other and hold items, items embed both.
func baseSchema() *df.Schema {
	return df.NewSchema(1, nil).
		Define(refLevel, df.RecordOf(
			df.Field{Name: "Entities", Type: df.ListOf(df.RefTo(refEntity))},
			df.Field{Name: "TileEntities", Type: df.ListOf(df.RefTo(refBlockEntity))},
		)).
		Define(refEntity, df.ChoiceOf("id", df.DefaultNamespace, map[string]df.Type{
			"arrow":   projectile(),
			"trident": projectile(),
			"shulker": entity(df.Field{Name: "Color", Type: df.NumberType()}),
			"zombie":  entity(),
		})).
		Define(refItem, df.RecordOf(
			df.Field{Name: "id", Type: df.StringType()},
			df.Field{Name: "Count", Type: df.NumberType()},
			df.Field{Name: "tag", Type: df.RecordOf(
				df.Field{Name: "BlockEntityTag", Type: df.RefTo(refBlockEntity)},
				df.Field{Name: "EntityTag", Type: df.RefTo(refEntity)},
				df.Field{Name: "display", Type: df.RecordOf(df.Field{Name: "Name", Type: df.StringType()})},
			)},
		)).
		Define(refBlockEntity, df.ChoiceOf("id", df.DefaultNamespace, map[string]df.Type{
			"chest": df.RecordOf(df.Field{Name: "Items", Type: df.ListOf(df.RefTo(refItem))}),
			"Chest": df.RecordOf(df.Field{Name: "Items", Type: df.ListOf(df.RefTo(refItem))}),
		})).
		MustBuild()
}

// arrowPickup replaces the legacy player flag of arrows with a pickup mode.
func arrowPickup(version int) *df.DataFix {
	return df.NewFix("ArrowPickupFix", version, false).
		Branch(refEntity, "arrow", df.Total(func(v dynamic.Value) dynamic.Value {
			if !v.Has("player") {
				return v
			}
			pickup := int64(0)
			if v.GetBool("player", false) {
				pickup = 1
			}
			return v.Remove("player").Set("pickup", dynamic.Int(pickup))
		})).
		MustBuild()
}

func shulkerColor(version int) *df.DataFix {
	return df.NewFix("ShulkerColorFix", version, false).
		Branch(refEntity, "shulker", df.Total(func(v dynamic.Value) dynamic.Value {
			if v.GetInt("Color", 0) == 10 {
				return v.Set("Color", dynamic.Int(16))
			}
			return v
		})).
		MustBuild()
}

func newFixer(t *testing.T, fixes ...*df.DataFix) *df.Fixer {
	t.Helper()
	f, err := df.NewBuilder().AddSchema(baseSchema()).AddFix(fixes...).Build()
	require.NoError(t, err)
	return f
}

func arrow(player bool, passengers ...dynamic.Value) dynamic.Value {
	v := dynamic.Map("id", "minecraft:arrow", "player", player)
	if len(passengers) > 0 {
		v = v.Set("Passengers", dynamic.List(passengers...))
	}
	return v
}

func requireValue(t *testing.T, want, got dynamic.Value) {
	t.Helper()
	require.True(t, dynamic.Equal(want, got), "want %s\ngot  %s", want, got)
}
