package controllers

import (
	"pembukuan-backend/database"
	"pembukuan-backend/engine"
	"pembukuan-backend/logger"
)

var (
	store *database.Store
	alloc *engine.Engine
)

// Init wires the controllers to the connected database. Call after
// database.Connect.
func Init() {
	store = database.NewStore(database.DB)
	alloc = engine.New(store, logger.WithComponent("engine"))
}
