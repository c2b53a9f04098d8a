package http

import (
	"github.com/nats-io/nats.go"

	"github.com/biohubbc/biohub/internal/adapters/postgres"
	"github.com/biohubbc/biohub/internal/adapters/valkey"
	"github.com/biohubbc/biohub/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Submissions *usecases.SubmissionService
	Transforms  *usecases.TransformService
	Search      *usecases.SearchService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
