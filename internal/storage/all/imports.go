// Package all wires every built-in storage backend into the storage factory.
//
// The package exists purely for side effects: blank-importing it runs the
// init functions of each concrete backend, which register their factories
// with the storage package. A binary that only needs a subset can import the
// individual backend packages instead.
package all

import (
	_ "github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage/mssql"
	_ "github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage/mysql"
	_ "github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage/postgres"
	_ "github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/storage/sqlite"
)
