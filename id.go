package opqueue

import "github.com/xraph/opqueue/id"

// ID is the primary identifier type for all opqueue entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
