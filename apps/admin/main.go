package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rendezvous/internal/audit"
	"github.com/smallbiznis/rendezvous/internal/booking"
	"github.com/smallbiznis/rendezvous/internal/clock"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/confirmation"
	"github.com/smallbiznis/rendezvous/internal/dispute"
	"github.com/smallbiznis/rendezvous/internal/governance"
	"github.com/smallbiznis/rendezvous/internal/lock"
	"github.com/smallbiznis/rendezvous/internal/migration"
	"github.com/smallbiznis/rendezvous/internal/notification"
	"github.com/smallbiznis/rendezvous/internal/observability"
	"github.com/smallbiznis/rendezvous/internal/payout"
	"github.com/smallbiznis/rendezvous/internal/pricing"
	"github.com/smallbiznis/rendezvous/internal/providers"
	"github.com/smallbiznis/rendezvous/internal/refund"
	"github.com/smallbiznis/rendezvous/internal/seed"
	"github.com/smallbiznis/rendezvous/internal/server"
	"github.com/smallbiznis/rendezvous/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		audit.Module,
		booking.Module,
		dispute.Module,
		payout.Module,
		pricing.Module,
		refund.Module,

		providers.Module,
		notification.Module,
		confirmation.Module,
		lock.Module,

		governance.Module,
		seed.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
