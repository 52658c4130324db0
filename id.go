package points

import "github.com/xraph/points/id"

// ID is the identifier type for journal entries and operations.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
