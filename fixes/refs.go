// Package fixes is a reference catalog of schemas and fixes for a block game
// save format, from data version 99 onwards. It exercises every feature of
// the engine and backs the CLI.
package fixes

import (
	df "github.com/reoring/datafixer"
)

// Type references of the catalog.
const (
	Entity      df.TypeRef = "ENTITY"
	ItemStack   df.TypeRef = "ITEM_STACK"
	BlockEntity df.TypeRef = "BLOCK_ENTITY"
	Chunk       df.TypeRef = "CHUNK"
	Player      df.TypeRef = "PLAYER"
)

// Refs lists the catalog references in a stable order.
func Refs() []df.TypeRef { return []df.TypeRef{Chunk, Player, Entity, BlockEntity, ItemStack} }

// BaselineVersion is assumed for documents without a version stamp.
const BaselineVersion = 99

// New builds a Fixer holding the whole catalog. Options override the
// defaults, including the baseline version.
func New(opts ...df.Option) (*df.Fixer, error) {
	all := append([]df.Option{df.WithBaselineVersion(BaselineVersion)}, opts...)
	return df.NewBuilder(all...).
		AddSchema(Schemas()...).
		AddFix(Fixes()...).
		Build()
}

// Fixes returns the catalog fixes in registration order.
func Fixes() []*df.DataFix {
	return []*df.DataFix{
		entityHealth(),
		ridingToPassengers(),
		zombieVillagerSplit(),
		blockEntityIDs(),
		shulkerColor(),
		arrowPickup(),
		zombifiedPiglin(),
	}
}
